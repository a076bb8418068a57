package elevenlabs

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/audiomint/audiomint-backend/internal/config"
	"github.com/audiomint/audiomint-backend/internal/pipeline"
)

const (
	defaultTTSModel = "eleven_multilingual_v2"
	sttModel        = "scribe_v1"
)

// Client talks to the ElevenLabs HTTP API. One request per method call;
// non-2xx responses surface as upstream errors carrying status and body.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(cfg *config.Config) *Client {
	timeout := cfg.ElevenLabsTimeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		baseURL: cfg.ElevenLabsBaseURL,
		apiKey:  cfg.ElevenLabsAPIKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// TextToSpeech synthesizes text with the given voice and returns MP3 bytes.
func (c *Client) TextToSpeech(ctx context.Context, voiceID, text, modelID string) ([]byte, error) {
	if modelID == "" {
		modelID = defaultTTSModel
	}
	payload, err := json.Marshal(map[string]string{
		"text":     text,
		"model_id": modelID,
	})
	if err != nil {
		return nil, err
	}

	return c.postBinary(ctx, "/v1/text-to-speech/"+voiceID, "application/json", bytes.NewReader(payload))
}

// GenerateSoundEffect creates a sound effect clip from a text prompt.
func (c *Client) GenerateSoundEffect(ctx context.Context, prompt string, durationSeconds float64) ([]byte, error) {
	body := map[string]interface{}{"text": prompt}
	if durationSeconds > 0 {
		body["duration_seconds"] = durationSeconds
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	return c.postBinary(ctx, "/v1/sound-generation", "application/json", bytes.NewReader(payload))
}

// SpeechToSpeech converts the uploaded audio into the target voice.
func (c *Client) SpeechToSpeech(ctx context.Context, voiceID, filename string, audio []byte) ([]byte, error) {
	body, contentType, err := multipartBody(map[string]string{"model_id": "eleven_multilingual_sts_v2"}, "audio", filename, audio)
	if err != nil {
		return nil, err
	}
	return c.postBinary(ctx, "/v1/speech-to-speech/"+voiceID, contentType, body)
}

// IsolateVoice strips background noise, returning clean speech audio.
func (c *Client) IsolateVoice(ctx context.Context, filename string, audio []byte) ([]byte, error) {
	body, contentType, err := multipartBody(nil, "audio", filename, audio)
	if err != nil {
		return nil, err
	}
	return c.postBinary(ctx, "/v1/audio-isolation", contentType, body)
}

// DubJob is the handle returned for an asynchronous dubbing job.
type DubJob struct {
	DubbingID        string  `json:"dubbing_id"`
	ExpectedDuration float64 `json:"expected_duration_sec"`
}

// CreateDub starts an asynchronous dubbing job and returns its handle.
func (c *Client) CreateDub(ctx context.Context, filename string, file []byte, sourceLang, targetLang, name string) (*DubJob, error) {
	fields := map[string]string{
		"target_lang": targetLang,
		"name":        name,
	}
	if sourceLang != "" {
		fields["source_lang"] = sourceLang
	}
	body, contentType, err := multipartBody(fields, "file", filename, file)
	if err != nil {
		return nil, err
	}

	raw, err := c.do(ctx, http.MethodPost, "/v1/dubbing", contentType, body)
	if err != nil {
		return nil, err
	}

	var job DubJob
	if err := json.Unmarshal(raw, &job); err != nil {
		return nil, fmt.Errorf("failed to parse dubbing response: %w", err)
	}
	return &job, nil
}

// DubStatus mirrors the provider's view of a dubbing job.
type DubStatus struct {
	DubbingID       string   `json:"dubbing_id"`
	Status          string   `json:"status"`
	TargetLanguages []string `json:"target_languages"`
	Error           string   `json:"error,omitempty"`
}

// GetDubStatus fetches the provider-side state of a dubbing job.
func (c *Client) GetDubStatus(ctx context.Context, dubbingID string) (*DubStatus, error) {
	raw, err := c.do(ctx, http.MethodGet, "/v1/dubbing/"+dubbingID, "", nil)
	if err != nil {
		return nil, err
	}

	var status DubStatus
	if err := json.Unmarshal(raw, &status); err != nil {
		return nil, fmt.Errorf("failed to parse dubbing status: %w", err)
	}
	return &status, nil
}

// DownloadDubbedAudio fetches the finished dub for one target language.
func (c *Client) DownloadDubbedAudio(ctx context.Context, dubbingID, languageCode string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, "/v1/dubbing/"+dubbingID+"/audio/"+languageCode, "", nil)
}

// Transcription is the speech-to-text result.
type Transcription struct {
	Text         string  `json:"text"`
	LanguageCode string  `json:"language_code"`
	Duration     float64 `json:"duration_seconds"`
}

// Transcribe runs speech-to-text on the uploaded audio.
func (c *Client) Transcribe(ctx context.Context, filename string, audio []byte) (*Transcription, error) {
	body, contentType, err := multipartBody(map[string]string{"model_id": sttModel}, "file", filename, audio)
	if err != nil {
		return nil, err
	}

	raw, err := c.do(ctx, http.MethodPost, "/v1/speech-to-text", contentType, body)
	if err != nil {
		return nil, err
	}

	var out Transcription
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to parse transcription: %w", err)
	}
	return &out, nil
}

// DesignedVoice is the result of a voice-design request.
type DesignedVoice struct {
	VoiceID      string `json:"voice_id"`
	PreviewAudio []byte `json:"-"`
}

type designResponse struct {
	VoiceID            string `json:"voice_id"`
	PreviewAudioBase64 string `json:"preview_audio_base_64"`
}

// DesignVoice generates a new synthetic voice from a text description and a
// sample passage (the provider requires at least 100 characters of sample).
func (c *Client) DesignVoice(ctx context.Context, name, description, sampleText string) (*DesignedVoice, error) {
	payload, err := json.Marshal(map[string]string{
		"voice_name":        name,
		"voice_description": description,
		"text":              sampleText,
	})
	if err != nil {
		return nil, err
	}

	raw, err := c.do(ctx, http.MethodPost, "/v1/text-to-voice/design", "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	var resp designResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse voice design response: %w", err)
	}

	voice := &DesignedVoice{VoiceID: resp.VoiceID}
	if resp.PreviewAudioBase64 != "" {
		if decoded, derr := base64.StdEncoding.DecodeString(resp.PreviewAudioBase64); derr == nil {
			voice.PreviewAudio = decoded
		}
	}
	return voice, nil
}

// DeleteVoice removes a custom voice from the provider account.
func (c *Client) DeleteVoice(ctx context.Context, voiceID string) error {
	_, err := c.do(ctx, http.MethodDelete, "/v1/voices/"+voiceID, "", nil)
	return err
}

// postBinary is do() for endpoints that answer with raw audio.
func (c *Client) postBinary(ctx context.Context, path, contentType string, body io.Reader) ([]byte, error) {
	return c.do(ctx, http.MethodPost, path, contentType, body)
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("xi-api-key", c.apiKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pipeline.ErrUpstream, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &pipeline.UpstreamError{StatusCode: resp.StatusCode, Body: truncate(string(raw), 500)}
	}
	return raw, nil
}

func multipartBody(fields map[string]string, fileField, filename string, data []byte) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile(fileField, filename)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", fmt.Errorf("failed to write form file: %w", err)
	}

	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("failed to write field %s: %w", k, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}
	return body, writer.FormDataContentType(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
