package shared

type ServerConfig struct {
	Sqlite       SqliteConfig       `mapstructure:"sqlite" validate:"required"`
	Stealthwatch StealthwatchConfig `mapstructure:"stealthwatch" validate:"required"`
	Twilio       TwilioConfig       `mapstructure:"twilio"`
	VideoSDK     VideoSDKConfig     `mapstructure:"videosdk" validate:"required"`
	Location     LocationConfig     `mapstructure:"location"`
	Google       GoogleConfig       `mapstructure:"google"`
}

type SqliteConfig struct {
	PassPhrase string `mapstructure:"passPhrase" validate:"required"`
}

type StealthwatchConfig struct {
	PrivateKeyPem string          `mapstructure:"privateKeyPem" validate:"required"`
	AdminPassword string          `mapstructure:"adminPassword" validate:"required"`
	Cron          CronConfig      `mapstructure:"cron" validate:"required"`
	Listener      ListenerConfig  `mapstructure:"listener" validate:"required"`
	Recording     RecordingConfig `mapstructure:"recording"`
}

type TwilioConfig struct {
	AccountSid          string `mapstructure:"accountSid"`
	AuthToken           string `mapstructure:"authToken"`
	MessagingServiceSid string `mapstructure:"messagingServiceSid"`
}

type VideoSDKConfig struct {
	BaseURL   string `mapstructure:"baseUrl" validate:"required"`
	Token     string `mapstructure:"token" validate:"required"`
	ViewerURL string `mapstructure:"viewerUrl" validate:"required"`
}

type LocationConfig struct {
	AgentURL string `mapstructure:"agentUrl"`
}

type RecordingConfig struct {
	CacheDir string `mapstructure:"cacheDir"`
}

type GoogleConfig struct {
	ApplicationCredentials string        `mapstructure:"applicationCredentials"`
	Storage                StorageConfig `mapstructure:"storage"`
}

type CronConfig struct {
	TimeZone string `mapstructure:"timeZone" validate:"required"`
}

type ListenerConfig struct {
	Port int `mapstructure:"port" validate:"required"`
}

type StorageConfig struct {
	Bucket                    string      `mapstructure:"bucket" validate:"required_with=EnableSqliteBackupAndSync"`
	Prefix                    string      `mapstructure:"prefix" validate:"required_with=EnableSqliteBackupAndSync"`
	SqliteBackupSchedule      string      `mapstructure:"sqliteBackupSchedule" validate:"required_with=EnableSqliteBackupAndSync"`
	EnableSqliteBackupAndSync interface{} `mapstructure:"enableSqliteBackupAndSync" validate:"omitempty,bool"`
	UploadVideos              interface{} `mapstructure:"uploadVideos" validate:"omitempty,bool"`
}
