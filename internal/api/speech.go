package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/localwhisper/whisper-stt/internal/stt"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

const (
	speechContentHeader = "X-Speech-Content"
	maxFrameSize        = 1 << 20
	endOfStream         = "end"
)

// SpeechHandler serves the host-facing speech-to-text endpoints.
type SpeechHandler struct {
	providers map[string]stt.Provider
	upgrader  websocket.Upgrader
}

func NewSpeechHandler(providers map[string]stt.Provider) *SpeechHandler {
	return &SpeechHandler{
		providers: providers,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  stt.DefaultChunkSize,
			WriteBufferSize: 1024,
		},
	}
}

func (h *SpeechHandler) provider(w http.ResponseWriter, r *http.Request) (stt.Provider, bool) {
	id := chi.URLParam(r, "provider")
	p, ok := h.providers[id]
	if !ok {
		WriteError(w, http.StatusNotFound, fmt.Sprintf("provider %q not found", id))
	}
	return p, ok
}

// Capabilities returns what the provider accepts.
func (h *SpeechHandler) Capabilities(w http.ResponseWriter, r *http.Request) {
	p, ok := h.provider(w, r)
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, p.Capabilities())
}

// Transcribe reads the request body as the audio stream of one session.
func (h *SpeechHandler) Transcribe(w http.ResponseWriter, r *http.Request) {
	p, ok := h.provider(w, r)
	if !ok {
		return
	}

	header := r.Header.Get(speechContentHeader)
	if header == "" {
		WriteError(w, http.StatusBadRequest, "missing "+speechContentHeader+" header")
		return
	}
	meta, err := stt.ParseSpeechContent(header)
	if err != nil {
		WriteErrorDetail(w, http.StatusBadRequest, "invalid "+speechContentHeader+" header", err.Error())
		return
	}
	if err := p.Capabilities().Check(meta); err != nil {
		WriteErrorDetail(w, http.StatusUnsupportedMediaType, "unsupported speech metadata", err.Error())
		return
	}

	// The body is live audio; server-wide deadlines would cut long utterances.
	log := hlog.FromRequest(r)
	rc := http.NewResponseController(w)
	if err := rc.SetReadDeadline(time.Time{}); err != nil {
		log.Debug().Err(err).Msg("clear read deadline")
	}
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		log.Debug().Err(err).Msg("clear write deadline")
	}

	res, err := p.Transcribe(r.Context(), meta, stt.ReaderStream(r.Body, stt.DefaultChunkSize))
	if err != nil {
		log.Debug().Err(err).Msg("session cancelled by client")
		return
	}
	WriteJSON(w, http.StatusOK, res)
}

// Stream runs one session over a WebSocket: a JSON metadata frame, binary
// audio frames, then a text frame "end". One JSON result frame is sent back.
func (h *SpeechHandler) Stream(w http.ResponseWriter, r *http.Request) {
	p, ok := h.provider(w, r)
	if !ok {
		return
	}
	log := hlog.FromRequest(r)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxFrameSize)

	var meta stt.Metadata
	if err := conn.ReadJSON(&meta); err != nil {
		closeWithError(conn, log, websocket.CloseUnsupportedData, "invalid metadata", err)
		return
	}
	if err := p.Capabilities().Check(meta); err != nil {
		closeWithError(conn, log, websocket.ClosePolicyViolation, "unsupported speech metadata", err)
		return
	}

	res, err := p.Transcribe(r.Context(), meta, &wsStream{conn: conn, log: log})
	if err != nil {
		log.Debug().Err(err).Msg("session cancelled by client")
		return
	}
	if err := conn.WriteJSON(res); err != nil {
		log.Warn().Err(err).Msg("write websocket result")
		return
	}
	if err := conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")); err != nil {
		log.Debug().Err(err).Msg("write websocket close")
	}
}

func closeWithError(conn *websocket.Conn, log *zerolog.Logger, code int, msg string, err error) {
	if werr := conn.WriteJSON(ErrorResponse{Error: msg, Detail: err.Error()}); werr != nil {
		log.Debug().Err(werr).Msg("write websocket error frame")
	}
	if werr := conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, msg)); werr != nil {
		log.Debug().Err(werr).Msg("write websocket close")
	}
}

// wsStream adapts incoming frames to stt.AudioStream.
type wsStream struct {
	conn *websocket.Conn
	log  *zerolog.Logger
}

func (s *wsStream) Next(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	mt, data, err := s.conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("read audio frame: %w", err)
	}
	switch mt {
	case websocket.BinaryMessage:
		return data, nil
	case websocket.TextMessage:
		if strings.TrimSpace(string(data)) == endOfStream {
			return nil, io.EOF
		}
	}
	s.log.Debug().Int("type", mt).Msg("unexpected websocket frame")
	return nil, errors.New("unexpected frame in audio stream")
}
