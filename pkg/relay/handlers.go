package relay

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/framerelay/pkg/frame"
	"github.com/teslashibe/framerelay/pkg/gemini"
	"github.com/teslashibe/framerelay/pkg/hub"
)

// Response messages.
const (
	msgNoImageData   = "No image data"
	msgServerError   = "Server error"
	msgNoImage       = "No image available"
	msgDecodeFailure = "Stored frame could not be decoded"
)

// FrameRequest is the body of POST /frame.
type FrameRequest struct {
	Image     string          `json:"image"`
	Timestamp ClientTimestamp `json:"timestamp"`
}

// Time returns the advisory timestamp. Zero means not supplied or unreadable.
func (r FrameRequest) Time() time.Time {
	return r.Timestamp.Time
}

// ClientTimestamp is the capture time a client attaches to a frame, sent as
// epoch milliseconds. It is only reported, never trusted, so decoding is
// lenient: a number, a numeric string or an RFC 3339 string are understood
// and anything else becomes the zero time instead of failing the request.
type ClientTimestamp struct {
	time.Time
}

// maxEpochMillis keeps float conversions exact.
const maxEpochMillis = 1 << 53

var clientTimeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", time.DateOnly}

// UnmarshalJSON never returns an error.
func (ts *ClientTimestamp) UnmarshalJSON(b []byte) error {
	ts.Time = time.Time{}

	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil
	}
	switch v := v.(type) {
	case float64:
		ts.Time = fromMillis(v)
	case string:
		s := strings.TrimSpace(v)
		if ms, err := strconv.ParseFloat(s, 64); err == nil {
			ts.Time = fromMillis(ms)
			return nil
		}
		for _, layout := range clientTimeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				ts.Time = t
				return nil
			}
		}
	}
	return nil
}

// MarshalJSON writes epoch milliseconds, or null for the zero time.
func (ts ClientTimestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte("null"), nil
	}
	return strconv.AppendInt(nil, ts.UnixMilli(), 10), nil
}

func fromMillis(ms float64) time.Time {
	if !(ms > 0 && ms < maxEpochMillis) {
		return time.Time{}
	}
	return time.UnixMilli(int64(ms))
}

type frameResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status        string       `json:"status"`
	Version       string       `json:"version"`
	Frames        frame.Status `json:"frames"`
	ProxyEnabled  bool         `json:"proxy_enabled"`
	StatusClients int          `json:"status_clients"`
}

// handleIndex reports that the server is up and how many frames it took.
func (s *Server) handleIndex(c *fiber.Ctx) error {
	return c.SendString(fmt.Sprintf("Server running! Images received: %d", s.store.Stats()))
}

// handleHealth returns a JSON status document.
func (s *Server) handleHealth(c *fiber.Ctx) error {
	resp := HealthResponse{
		Status:       "ok",
		Version:      s.version,
		Frames:       s.store.Snapshot(),
		ProxyEnabled: s.proxy != nil,
	}
	if s.status != nil {
		resp.StatusClients = s.status.ClientCount()
	}
	return c.JSON(resp)
}

// handlePostFrame stores a new frame, replacing the previous one.
func (s *Server) handlePostFrame(c *fiber.Ctx) error {
	var req FrameRequest
	// An empty body or a non-JSON content type simply carries no image.
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil && !errors.Is(err, fiber.ErrUnprocessableEntity) {
			s.logger.Warn("frame body rejected", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(frameResponse{
				Success: false,
				Message: msgServerError,
			})
		}
	}

	if err := s.store.Accept(req.Image, req.Time()); err != nil {
		if errors.Is(err, frame.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(frameResponse{
				Success: false,
				Message: msgNoImageData,
			})
		}
		return err
	}

	return c.JSON(frameResponse{Success: true})
}

// handleGetFrame serves the latest frame as a JPEG.
func (s *Server) handleGetFrame(c *fiber.Ctx) error {
	f, err := s.store.ReadLatest()
	switch {
	case errors.Is(err, frame.ErrAbsent):
		return c.Status(fiber.StatusNotFound).SendString(msgNoImage)
	case errors.Is(err, frame.ErrDecode):
		s.logger.Error("stored frame undecodable", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(frameResponse{
			Success: false,
			Message: msgDecodeFailure,
		})
	case err != nil:
		return err
	}

	c.Set(fiber.HeaderContentType, frame.ContentType)
	c.Set(fiber.HeaderCacheControl, "no-store")
	c.Set("X-Frame-Seq", fmt.Sprint(f.Seq))
	return c.Send(f.Data)
}

// handleGemini relays a prompt or audio clip to the inference API.
func (s *Server) handleGemini(c *fiber.Ctx) error {
	var req gemini.Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	raw, err := s.proxy.Generate(c.UserContext(), req)
	if err != nil {
		message := err.Error()
		var uerr *gemini.UpstreamError
		if errors.As(err, &uerr) {
			message = uerr.Message
		}
		s.logger.Error("gemini request failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": message})
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(raw)
}

// handleStatusWS streams progress events to a dashboard.
func (s *Server) handleStatusWS(c *websocket.Conn) {
	st := s.store.Snapshot()
	greeting, err := json.Marshal(hub.Event{
		Type:       hub.EventStatus,
		Count:      st.Accepted,
		ReceivedAt: st.LastReceivedAt,
	})
	if err != nil {
		s.logger.Error("encode status greeting", "error", err)
		return
	}

	client, err := hub.NewClient(s.status, c, greeting)
	if err != nil {
		return
	}
	s.logger.Debug("status client joined", "client", client.ID(), "remote", c.RemoteAddr().String())
	client.Run()
	s.logger.Debug("status client left", "client", client.ID())
}
