package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/gorilla/mux"
	"github.com/stealthwatch/stealthwatch/server/auth"
	"github.com/stealthwatch/stealthwatch/server/auth/key"
	"github.com/stealthwatch/stealthwatch/server/models"
	"gorm.io/gorm"
)

type ResponsePayload struct {
	Errors  []string    `json:"errors,omitempty"`
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
}

func healthCheck(rw http.ResponseWriter, r *http.Request) {
	json.NewEncoder(rw).Encode(ResponsePayload{Success: true})
}

func jwks(rw http.ResponseWriter, r *http.Request) {
	keyPairJWK, err := authKeyPair.JWK()
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(rw).Encode(key.ExportJWKAsJWKS(keyPairJWK))
}

func logIn(rw http.ResponseWriter, r *http.Request) {
	data := make(map[string]string)
	decoder := json.NewDecoder(r.Body)
	decoder.Decode(&data)

	if !auth.CheckPasswordHash(data["password"], adminPasswordHash) {
		writeResponse(rw, ResponsePayload{Errors: []string{"password is invalid"}}, http.StatusUnauthorized)
		return
	}

	token, err := auth.EncodeJWT(auth.StealthwatchTokenClaims{
		IsAdmin: true,
		StandardClaims: jwt.StandardClaims{
			Subject:   "admin",
			ExpiresAt: time.Now().Add(24 * time.Hour).Unix(),
		},
	}, authKeyPair)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true, Data: map[string]string{"token": token}})
}

func findSettings(rw http.ResponseWriter, r *http.Request) {
	settings, err := models.LoadAppSettings()
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true, Data: settings})
}

// updateSettings saves each submitted key on its own - a failure on the
// second key can leave the first one already written.
func updateSettings(rw http.ResponseWriter, r *http.Request) {
	data := make(map[string]interface{})
	decoder := json.NewDecoder(r.Body)

	err := decoder.Decode(&data)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	removeUnknownFields(data, map[string]bool{
		models.EMERGENCY_CONTACT_KEY: true,
		models.CAMERA_MODE_KEY:       true,
	})
	if len(data) <= 0 {
		writeResponse(rw, ResponsePayload{Errors: []string{"valid fields required"}}, http.StatusBadRequest)
		return
	}

	if data[models.CAMERA_MODE_KEY] != nil {
		cameraMode := fmt.Sprintf("%v", data[models.CAMERA_MODE_KEY])
		if !models.CameraModeNameMap[cameraMode] {
			writeResponse(rw, ResponsePayload{Errors: []string{"cameraMode must be one of front/back/both"}}, http.StatusBadRequest)
			return
		}
	}

	for setting, value := range data {
		err = models.SaveSetting(setting, fmt.Sprintf("%v", value))
		if err != nil {
			writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
			return
		}
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true})
}

func testSms(rw http.ResponseWriter, r *http.Request) {
	data := make(map[string]string)
	decoder := json.NewDecoder(r.Body)
	decoder.Decode(&data)

	if strings.TrimSpace(data["phone_number"]) == "" || strings.TrimSpace(data["message"]) == "" {
		writeResponse(rw, ResponsePayload{Errors: []string{"both a phone_number & message is required"}}, http.StatusBadRequest)
		return
	}

	err := smsClient.SendMessage(data["phone_number"], data["message"])
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true})
}

func createPanicEpisode(rw http.ResponseWriter, r *http.Request) {
	episode, err := sequencer.Trigger(r.Context())
	if err != nil {
		payload := ResponsePayload{Errors: []string{err.Error()}, Data: episode}
		writeResponse(rw, payload, http.StatusBadGateway)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true, Data: episode})
}

func findPanicEpisode(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	episode, err := models.FindEpisode(vars["id"])
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusNotFound)
		return
	}

	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true, Data: episode})
}

func stopPanicRecording(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	episode, err := models.FindEpisode(vars["id"])
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusNotFound)
		return
	}

	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusInternalServerError)
		return
	}

	if err := sequencer.StopRecording(episode.ID); err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, http.StatusConflict)
		return
	}

	json.NewEncoder(rw).Encode(ResponsePayload{Success: true})
}
