package cmd

import (
	"context"
	"errors"
	"testing"

	"github.com/richardwooding/spurs-feed-mcp/model"
)

func TestRunCmd_URLValidation(t *testing.T) {
	tests := []struct {
		name            string
		feedURL         string
		allowPrivateIPs bool
		wantErr         error
	}{
		{name: "public address", feedURL: "https://93.184.216.34/rss/current.xml"},
		{name: "file scheme rejected", feedURL: "file:///etc/passwd", wantErr: model.ErrUnsupportedScheme},
		{name: "javascript rejected", feedURL: "javascript:alert('xss')", wantErr: model.ErrUnsupportedScheme},
		{name: "no scheme rejected", feedURL: "not-a-url-at-all", wantErr: model.ErrUnsupportedScheme},
		{name: "empty rejected", feedURL: "", wantErr: model.ErrEmptyURL},
		{name: "localhost blocked by default", feedURL: "http://localhost/feed", wantErr: model.ErrPrivateIPBlocked},
		{name: "private IP blocked by default", feedURL: "http://192.168.1.1/feed", wantErr: model.ErrPrivateIPBlocked},
		{name: "loopback blocked by default", feedURL: "http://127.0.0.1:8080/feed", wantErr: model.ErrPrivateIPBlocked},
		{name: "localhost allowed with flag", feedURL: "http://localhost/feed", allowPrivateIPs: true},
		{name: "private IP allowed with flag", feedURL: "http://192.168.1.1/feed", allowPrivateIPs: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &RunCmd{
				Transport:       "stdio",
				FeedURL:         tt.feedURL,
				AllowPrivateIPs: tt.allowPrivateIPs,
			}

			_, feedStore, err := c.newServer(context.Background(), model.DiscardLogger())
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			feedStore.Close()
		})
	}
}

func TestRunCmd_ValidationBeforeServing(t *testing.T) {
	// Run must fail on the URL before touching stdio.
	c := &RunCmd{Transport: "stdio", FeedURL: "http://10.0.0.1/feed"}

	err := c.Run(&model.Globals{}, context.Background())
	if !errors.Is(err, model.ErrPrivateIPBlocked) {
		t.Errorf("expected private IP error, got %v", err)
	}
}
