package registry

import (
	"context"
	"errors"
	"log/slog"
)

// CDNSource resolves complete item documents published under a base URL.
type CDNSource struct {
	client *Client
	spec   CDNSpec
	logger *slog.Logger
}

// NewCDNSource creates a source reading spec through client.
func NewCDNSource(client *Client, spec CDNSpec, logger *slog.Logger) *CDNSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &CDNSource{client: client, spec: spec, logger: logger}
}

func (s *CDNSource) String() string { return s.spec.BaseURL }

// Lookup fetches <base>/<name>.json. Published items share one namespace, so the
// category only filters the result.
func (s *CDNSource) Lookup(ctx context.Context, name string, cat Category) (*Item, error) {
	item, err := s.client.FetchItem(ctx, s.spec, name)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		logFetchFailure(s.logger, "could not fetch "+name+" from "+s.String(), err)
		return nil, ErrNotFound
	}
	if cat != "" && item.Type != categoryItemType(cat) {
		return nil, ErrNotFound
	}
	if len(item.Files) == 0 {
		s.logger.Debug("published item has no files", "component", name)
		return nil, ErrNotFound
	}
	if item.Source == "" {
		item.Source = s.String()
	}
	return item, nil
}

// Names is not available for CDN sources; they publish no index.
func (s *CDNSource) Names(ctx context.Context, cat Category) ([]string, error) {
	return nil, errors.New("listing is not supported for CDN sources")
}
