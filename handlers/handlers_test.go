package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	documentRepo "kvrdesk/database/repository/document"
	"kvrdesk/middleware"
	"kvrdesk/models"
	"kvrdesk/services/booking"
	ai "kvrdesk/services/intelligence"
	"kvrdesk/services/session"
	"kvrdesk/services/tools"
	"kvrdesk/services/voice"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var applicant = models.UserData{Name: "Jane Doe", Email: "jane@x.com", Reason: "visa expires next week"}

func newBookingService(t *testing.T) *booking.DefaultBookingService {
	t.Helper()
	store := documentRepo.NewFileStore(filepath.Join(t.TempDir(), "appointments.json"))
	doc := models.NewDocument()
	doc.Appointments = []models.Slot{
		{ID: "apt_001", Date: "2099-12-05", Time: "09:00", Type: "emergency", Available: true},
		{ID: "apt_002", Date: "2099-12-05", Time: "14:00", Type: "emergency", Available: true},
		{ID: "apt_003", Date: "2099-12-06", Time: "10:00", Type: "emergency", Available: false},
	}
	if err := store.Save(context.Background(), doc); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return booking.NewBookingService(store, nil, nil, 30*time.Minute)
}

func bookingRouter(svc booking.BookingService) *gin.Engine {
	h := NewBookingHandler(svc)
	r := gin.New()
	r.SetHTMLTemplate(Pages())
	r.GET("/confirm", h.ConfirmHoldHandler)
	r.GET("/api/availability", h.AvailabilityHandler)
	r.GET("/api/availability/next", h.NextAvailableHandler)
	r.GET("/api/bookings/:id", h.GetBookingHandler)
	r.POST("/api/bookings/:id/cancel", h.CancelBookingHandler)
	return r
}

func serve(r http.Handler, method, target string, body []byte, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestConfirmHoldJSON(t *testing.T) {
	svc := newBookingService(t)
	r := bookingRouter(svc)

	hold, err := svc.Reserve(context.Background(), "apt_001", applicant)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}

	w := serve(r, http.MethodGet, "/confirm?token="+hold.ConfirmationToken, nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	var res booking.FinalizeResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.Booking.AppointmentID != "apt_001" || res.Booking.BookingID == "" {
		t.Fatalf("booking = %+v", res.Booking)
	}

	// The booking is now visible and the token is spent.
	w = serve(r, http.MethodGet, "/api/bookings/"+res.Booking.BookingID, nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get booking status = %d", w.Code)
	}
	w = serve(r, http.MethodGet, "/confirm?token="+hold.ConfirmationToken, nil, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("second confirm status = %d", w.Code)
	}

	w = serve(r, http.MethodPost, "/api/bookings/"+res.Booking.BookingID+"/cancel", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("cancel status = %d body=%s", w.Code, w.Body.String())
	}
	if ok, _ := svc.IsAvailable(context.Background(), "apt_001"); !ok {
		t.Fatal("slot not reopened after cancel")
	}
}

func TestConfirmHoldHTML(t *testing.T) {
	svc := newBookingService(t)
	r := bookingRouter(svc)
	html := map[string]string{"Accept": "text/html,application/xhtml+xml"}

	w := serve(r, http.MethodGet, "/confirm", nil, html)
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "could not confirm") {
		t.Fatalf("missing token: %d %s", w.Code, w.Body.String())
	}

	hold, err := svc.Reserve(context.Background(), "apt_002", applicant)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	w = serve(r, http.MethodGet, "/confirm?token="+hold.ConfirmationToken, nil, html)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Appointment confirmed") || !strings.Contains(body, "2:00 PM") {
		t.Fatalf("page = %s", body)
	}
}

func TestAvailabilityEndpoints(t *testing.T) {
	r := bookingRouter(newBookingService(t))

	w := serve(r, http.MethodGet, "/api/availability?dates=2099-12-05,2099-12-06", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	var res booking.AvailabilityResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.TotalAvailable != 2 {
		t.Fatalf("total = %d, want 2", res.TotalAvailable)
	}

	if w := serve(r, http.MethodGet, "/api/availability", nil, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("missing dates status = %d", w.Code)
	}
	if w := serve(r, http.MethodGet, "/api/availability/next?count=zero", nil, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("bad count status = %d", w.Code)
	}
	if w := serve(r, http.MethodGet, "/api/bookings/KVR-NOPE", nil, nil); w.Code != http.StatusNotFound {
		t.Fatalf("unknown booking status = %d", w.Code)
	}
}

type fakeRunner struct {
	name   string
	params map[string]interface{}
}

func (f *fakeRunner) ExecuteParams(_ context.Context, name string, params map[string]interface{}) tools.Result {
	f.name, f.params = name, params
	return tools.Result{Tool: tools.Name(name), Payload: map[string]string{"status": "success"}}
}

func TestWebhook(t *testing.T) {
	runner := &fakeRunner{}
	wh := NewWebhookHandler(runner)
	r := gin.New()
	r.POST("/webhook", middleware.WebhookSignatureMiddleware("s3cret"), wh.HandleWebhook)

	body := []byte(`{"type":"tool_call","tool_name":"check_availability","parameters":{"dates":["2099-12-05"]}}`)

	w := serve(r, http.MethodPost, "/webhook", body, map[string]string{middleware.SignatureHeader: "deadbeef"})
	if w.Code != http.StatusUnauthorized || runner.name != "" {
		t.Fatalf("bad signature: status %d, ran %q", w.Code, runner.name)
	}

	sig := map[string]string{middleware.SignatureHeader: middleware.Sign("s3cret", body)}
	w = serve(r, http.MethodPost, "/webhook", body, sig)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	if runner.name != "check_availability" || runner.params["dates"] == nil {
		t.Fatalf("runner got %s %v", runner.name, runner.params)
	}
	var resp struct {
		Success bool              `json:"success"`
		Result  map[string]string `json:"result"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Success || resp.Result["status"] != "success" {
		t.Fatalf("response = %s", w.Body.String())
	}

	other := []byte(`{"type":"conversation_ended"}`)
	w = serve(r, http.MethodPost, "/webhook", other, map[string]string{middleware.SignatureHeader: middleware.Sign("s3cret", other)})
	if w.Code != http.StatusOK || strings.Contains(w.Body.String(), "result") {
		t.Fatalf("non tool event: %d %s", w.Code, w.Body.String())
	}
}

// fakeSpeech hands out queued transcription results in order.
type fakeSpeech struct {
	mu      sync.Mutex
	results []models.TranscriptionResult
}

func (f *fakeSpeech) Transcribe(_ context.Context, _ []byte, _, _ string) models.TranscriptionResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.results) == 0 {
		return models.TranscriptionResult{Status: "error", Message: "no audio"}
	}
	next := f.results[0]
	f.results = f.results[1:]
	return next
}

func (f *fakeSpeech) Synthesize(_ context.Context, text string) ([]byte, error) {
	return []byte("mp3:" + text), nil
}

func TestSynthesizeHandler(t *testing.T) {
	h := NewSpeechHandler(&fakeSpeech{}, &fakeSpeech{})
	r := gin.New()
	r.POST("/api/speech/synthesize", h.SynthesizeHandler)

	w := serve(r, http.MethodPost, "/api/speech/synthesize", []byte(`{"text":"Hallo"}`), map[string]string{"Content-Type": "application/json"})
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "audio/mpeg" || w.Body.String() != "mp3:Hallo" {
		t.Fatalf("synthesize: %d %q %q", w.Code, w.Header().Get("Content-Type"), w.Body.String())
	}
	w = serve(r, http.MethodPost, "/api/speech/synthesize", []byte(`{"text":"  "}`), map[string]string{"Content-Type": "application/json"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("blank text status = %d", w.Code)
	}
}

// replyClient answers every turn with the same text and never calls tools.
type replyClient struct{ text string }

func (c replyClient) Complete(_ context.Context, _ ai.CompletionRequest) (*ai.CompletionResponse, error) {
	return &ai.CompletionResponse{Content: c.text}, nil
}

type fakeStreamer struct {
	mu   sync.Mutex
	text []string
}

func (f *fakeStreamer) Stream(ctx context.Context, text <-chan string, onAudio voice.AudioFunc) error {
	for t := range text {
		f.mu.Lock()
		f.text = append(f.text, t)
		f.mu.Unlock()
		if err := onAudio(ctx, []byte("audio:"+t)); err != nil {
			return err
		}
	}
	return nil
}

func newSessionServer(t *testing.T, streamer voice.Streamer, transcriber voice.Transcriber) (*SessionHandler, *websocket.Conn) {
	t.Helper()
	h := NewSessionHandler(session.NewRegistry(), func() *ai.Agent {
		return ai.NewAgent(replyClient{text: "Hello, how can I help?"}, nil, "system", nil)
	}, streamer, transcriber, nil)

	r := gin.New()
	r.GET("/websocket", h.WebSocketHandler)
	r.GET("/api/sessions/:id/snapshot", h.SnapshotHandler)
	r.GET("/health", h.HealthHandler)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/websocket", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return h, conn
}

func readMessage(t *testing.T, conn *websocket.Conn) models.SocketMessage {
	t.Helper()
	var msg models.SocketMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

func TestWebSocketTurn(t *testing.T) {
	streamer := &fakeStreamer{}
	h, conn := newSessionServer(t, streamer, nil)

	hello := readMessage(t, conn)
	if hello.Type != MsgSession || hello.SessionID == "" {
		t.Fatalf("first message = %+v", hello)
	}
	if _, ok := h.Registry.Get(hello.SessionID); !ok {
		t.Fatal("session not registered")
	}

	if err := conn.WriteJSON(models.SocketMessage{Type: MsgUserMessage, Text: "I need an appointment"}); err != nil {
		t.Fatal(err)
	}
	if msg := readMessage(t, conn); msg.Type != MsgStatus {
		t.Fatalf("expected status, got %+v", msg)
	}
	if msg := readMessage(t, conn); msg.Type != MsgAssistantMessage || msg.Text != "Hello, how can I help?" {
		t.Fatalf("expected reply, got %+v", msg)
	}

	kind, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	if kind != websocket.BinaryMessage || string(data) != "audio:Hello, how can I help?" {
		t.Fatalf("audio frame = %d %q", kind, data)
	}
	if msg := readMessage(t, conn); msg.Type != MsgAudioEnd {
		t.Fatalf("expected audio_end, got %+v", msg)
	}

	s, _ := h.Registry.Get(hello.SessionID)
	if got := len(s.Agent.History()); got != 3 {
		t.Fatalf("history length = %d, want 3", got)
	}

	if err := conn.WriteJSON(models.SocketMessage{Type: MsgReset}); err != nil {
		t.Fatal(err)
	}
	if msg := readMessage(t, conn); msg.Type != MsgStatus || msg.Message != "Conversation reset" {
		t.Fatalf("expected reset status, got %+v", msg)
	}
	if got := len(s.Agent.History()); got != 1 {
		t.Fatalf("history after reset = %d, want 1", got)
	}

	if err := conn.WriteJSON(models.SocketMessage{Type: "dance"}); err != nil {
		t.Fatal(err)
	}
	if msg := readMessage(t, conn); msg.Type != MsgError {
		t.Fatalf("expected error for unknown type, got %+v", msg)
	}
}

func TestWebSocketAudioTurn(t *testing.T) {
	stt := &fakeSpeech{results: []models.TranscriptionResult{
		{Status: "success", Text: "Termin bitte"},
		{Status: "error", Message: "empty clip"},
	}}
	_, conn := newSessionServer(t, nil, stt)
	readMessage(t, conn)

	if err := conn.WriteMessage(websocket.BinaryMessage, []byte{0x1a, 0x45, 0xdf, 0xa3}); err != nil {
		t.Fatal(err)
	}
	if msg := readMessage(t, conn); msg.Type != MsgTranscript || msg.Text != "Termin bitte" {
		t.Fatalf("expected transcript, got %+v", msg)
	}
	if msg := readMessage(t, conn); msg.Type != MsgStatus {
		t.Fatalf("expected status, got %+v", msg)
	}
	// Without a streamer the reply is text only.
	if msg := readMessage(t, conn); msg.Type != MsgAssistantMessage {
		t.Fatalf("expected reply, got %+v", msg)
	}

	if err := conn.WriteMessage(websocket.BinaryMessage, []byte{0x00}); err != nil {
		t.Fatal(err)
	}
	if msg := readMessage(t, conn); msg.Type != MsgError {
		t.Fatalf("expected error, got %+v", msg)
	}
}

func TestSnapshotAndHealth(t *testing.T) {
	h := NewSessionHandler(session.NewRegistry(), nil, nil, nil, nil)
	agent := ai.NewAgent(replyClient{}, nil, "system", nil)
	sess := h.Registry.Open(agent)

	r := gin.New()
	r.GET("/api/sessions/:id/snapshot", h.SnapshotHandler)
	r.GET("/health", h.HealthHandler)

	if w := serve(r, http.MethodGet, "/api/sessions/"+sess.ID+"/snapshot", nil, nil); w.Code != http.StatusOK {
		t.Fatalf("live snapshot status = %d", w.Code)
	}
	if w := serve(r, http.MethodGet, "/api/sessions/unknown/snapshot", nil, nil); w.Code != http.StatusNotFound {
		t.Fatalf("unknown snapshot status = %d", w.Code)
	}

	w := serve(r, http.MethodGet, "/health", nil, nil)
	var health struct {
		Status            string `json:"status"`
		ActiveConnections int    `json:"active_connections"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &health); err != nil {
		t.Fatal(err)
	}
	if health.Status != "healthy" || health.ActiveConnections != 1 {
		t.Fatalf("health = %s", w.Body.String())
	}
}

func TestSocketWriterLogsFailedWrites(t *testing.T) {
	conns := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		up := websocket.Upgrader{}
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		conns <- conn
	}))
	defer srv.Close()

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	conn := <-conns
	core, logs := observer.New(zap.WarnLevel)
	out := &socketWriter{conn: conn, log: zap.New(core)}

	if err := out.JSON(models.SocketMessage{Type: MsgStatus}); err != nil {
		t.Fatalf("write on open socket: %v", err)
	}
	if logs.Len() != 0 {
		t.Fatalf("unexpected logs: %v", logs.All())
	}

	conn.Close()
	if err := out.JSON(models.SocketMessage{Type: MsgAudioEnd}); err == nil {
		t.Fatal("write on closed socket succeeded")
	}
	if err := out.Binary([]byte("mp3")); err == nil {
		t.Fatal("binary write on closed socket succeeded")
	}
	entries := logs.FilterMessage("websocket write failed").All()
	if len(entries) != 1 || entries[0].ContextMap()["type"] != MsgAudioEnd {
		t.Fatalf("write failure not logged: %v", logs.All())
	}
	if logs.FilterMessage("websocket audio write failed").Len() != 1 {
		t.Fatalf("audio write failure not logged: %v", logs.All())
	}
}
