package feed

import (
	"fmt"
	"net/url"
	"strings"
)

// WebSocketBase converts an HTTP base URL into the matching websocket base:
// http://host:port → ws://host:port, https → wss.
func WebSocketBase(httpBase string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(httpBase))
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("base url %q has no host", httpBase)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("base url %q: unsupported scheme %q", httpBase, u.Scheme)
	}
	return fmt.Sprintf("%s://%s%s", u.Scheme, u.Host, strings.TrimRight(u.Path, "/")), nil
}
