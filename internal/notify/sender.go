package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Sender: POST payload konfirmasi ke provider notifikasi. Timeout ketat
// supaya provider lambat tidak menahan worker.
type Sender struct {
	URL    string
	Client *http.Client
}

func NewSender(url string) *Sender {
	return &Sender{URL: url, Client: &http.Client{Timeout: 5 * time.Second}}
}

func (s *Sender) Send(ctx context.Context, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "inkpress-notifier/1.0")

	resp, err := s.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return fmt.Errorf("notification provider returned %d", resp.StatusCode)
}
