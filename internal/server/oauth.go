package server

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"sync"
)

// Exchanger trades an authorization code for tokens.
type Exchanger func(ctx context.Context, code string) error

// OAuthResult is the outcome of one authorization callback.
type OAuthResult struct {
	Err error
}

// OAuthHandler handles the authorization code redirect.
//
// It validates the state parameter, hands the code to its [Exchanger] and publishes exactly one
// [OAuthResult]. Later callbacks are rejected.
type OAuthHandler struct {
	exchange Exchanger
	state    string
	path     string
	platform string

	resultChan  chan OAuthResult
	once        sync.Once
	mu          sync.Mutex
	callbackHit bool
}

// NewOAuthHandler creates a handler for path. The state token should be random.
func NewOAuthHandler(platform, path, state string, exchange Exchanger) *OAuthHandler {
	if path == "" {
		path = "/callback"
	}
	return &OAuthHandler{
		exchange:   exchange,
		state:      state,
		path:       path,
		platform:   platform,
		resultChan: make(chan OAuthResult, 1),
	}
}

func (h *OAuthHandler) Routes() []string {
	return []string{h.path}
}

func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.callbackHit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.callbackHit = true
	h.mu.Unlock()

	query := r.URL.Query()
	if query.Get("state") != h.state {
		h.send(OAuthResult{Err: fmt.Errorf("invalid state parameter")})
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	code := query.Get("code")
	if code == "" {
		h.send(OAuthResult{Err: fmt.Errorf("authorization failed: %s - %s", query.Get("error"), query.Get("error_description"))})
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	if err := h.exchange(r.Context(), code); err != nil {
		h.send(OAuthResult{Err: fmt.Errorf("token exchange failed: %w", err)})
		http.Error(w, "Token exchange failed", http.StatusInternalServerError)
		return
	}

	h.send(OAuthResult{})
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	successPage.Execute(w, h.platform)
}

func (h *OAuthHandler) send(result OAuthResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result receives exactly one result and is then closed.
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.resultChan
}

// Wait blocks until the callback completed or ctx is done.
func (h *OAuthHandler) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-h.resultChan:
		return res.Err
	}
}

var successPage = template.Must(template.New("success").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>Authorization Successful</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #1DB954; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>✓ {{.}} connected</h1>
        <p>You can close this window and return to plsync.</p>
    </div>
</body>
</html>
`))
