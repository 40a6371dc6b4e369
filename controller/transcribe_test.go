package controller

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealmate/agent-backend/common/config"
	"github.com/dealmate/agent-backend/dto"
)

// useOpenAIServer points the OpenAI client at handler for the rest of the test.
func useOpenAIServer(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	originalURL, originalKey := config.OpenAIBaseURL, config.OpenAIAPIKey
	config.OpenAIBaseURL, config.OpenAIAPIKey = srv.URL, "sk-test"
	t.Cleanup(func() {
		config.OpenAIBaseURL, config.OpenAIAPIKey = originalURL, originalKey
	})
}

func TestTranscribeReturnsTranscript(t *testing.T) {
	useOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/audio/transcriptions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		assert.Equal(t, config.OpenAITranscribeModel, r.FormValue("model"))
		assert.Equal(t, "verbose_json", r.FormValue("response_format"))
		assert.Equal(t, "en", r.FormValue("language"))

		file, header, err := r.FormFile("file")
		if assert.NoError(t, err) {
			defer file.Close()
			assert.Equal(t, "call.m4a", header.Filename)
			audio, _ := io.ReadAll(file)
			assert.Equal(t, "fake-audio", string(audio))
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"task":"transcribe","language":"english","duration":12.5,"text":"Revenue grew 30%."}`)
	})

	rec := postJSON(t, "/transcribe", map[string]any{
		"audio_base64": base64.StdEncoding.EncodeToString([]byte("fake-audio")),
		"filename":     "../call.m4a",
		"language":     "en",
		"deal_id":      "d-9",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp dto.TranscribeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "d-9", resp.DealID)
	assert.Equal(t, "Revenue grew 30%.", resp.Transcript)
	assert.Equal(t, "english", resp.Language)
	require.NotNil(t, resp.DurationSeconds)
	assert.InDelta(t, 12.5, *resp.DurationSeconds, 1e-9)
}

func TestTranscribeFetchesAudioURL(t *testing.T) {
	audioSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "remote-audio")
	}))
	t.Cleanup(audioSrv.Close)

	useOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("file")
		if assert.NoError(t, err) {
			defer file.Close()
			assert.Equal(t, "q3-call.wav", header.Filename)
			audio, _ := io.ReadAll(file)
			assert.Equal(t, "remote-audio", string(audio))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"text":"hello","duration":3}`)
	})

	rec := postJSON(t, "/transcribe", map[string]any{"audio_url": audioSrv.URL + "/calls/q3-call.wav?sig=abc"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "hello", decodeBody(t, rec)["transcript"])
}

func TestTranscribeMissingAudio(t *testing.T) {
	rec := postJSON(t, "/transcribe", `{"deal_id":"d-9"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Missing audio"}`, rec.Body.String())
}

func TestTranscribeUpstreamFailure(t *testing.T) {
	useOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":{"message":"engine overloaded","type":"server_error"}}`)
	})

	rec := postJSON(t, "/transcribe", map[string]any{
		"audio_base64": base64.StdEncoding.EncodeToString([]byte("fake-audio")),
	})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["message"], "engine overloaded")
}
