package analytics

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPEmitterPostsEvent(t *testing.T) {
	received := make(chan eventPayload, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var p eventPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		received <- p
	}))
	defer srv.Close()

	userID := uuid.New()
	emitter := NewHTTPEmitter(srv.URL, "secret")
	emitter.Emit("limit_hit", userID, map[string]interface{}{"metric": "characters"})

	select {
	case p := <-received:
		assert.Equal(t, "limit_hit", p.Event)
		assert.Equal(t, userID.String(), p.UserID)
		assert.Equal(t, "characters", p.Properties["metric"])
		assert.NotEmpty(t, p.Timestamp)
	case <-time.After(2 * time.Second):
		t.Fatal("event never arrived")
	}
}

func TestEmitNeverBlocksOnDeadSink(t *testing.T) {
	emitter := NewHTTPEmitter("http://127.0.0.1:1", "")

	done := make(chan struct{})
	go func() {
		emitter.Emit("tts_generated", uuid.New(), nil)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Emit blocked the caller")
	}
}

func TestFromConfig(t *testing.T) {
	assert.IsType(t, Nop{}, FromConfig("", "key"))
	assert.IsType(t, &HTTPEmitter{}, FromConfig("https://sink.test/events", "key"))
}
