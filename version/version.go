package version

// Version is the current stealthwatch release.
const Version = "0.1.0"
