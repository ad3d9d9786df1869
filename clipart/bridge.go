// Package clipart bridges the editor to an external icon-search service and
// imports selected icons as scalable vector groups.
package clipart

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"garment-studio/core"

	"github.com/sirupsen/logrus"
	"github.com/srwiley/oksvg"
)

const DefaultBaseURL = "https://api.iconify.design"

type Bridge struct {
	baseURL string
	client  *http.Client
}

func New(baseURL string, client *http.Client) *Bridge {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Bridge{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

// SearchResult carries the ordered icon identifiers. Token is the editor
// session's sequence number for the search that produced them; the session
// stamps it and discards responses a newer search has superseded.
type SearchResult struct {
	Token uint64   `json:"-"`
	Icons []string `json:"icons"`
}

// Search queries the icon service. No matches is an empty result, not an
// error; service failures are reported without crashing the editor.
func (b *Bridge) Search(ctx context.Context, query string, limit int) (*SearchResult, error) {
	if limit <= 0 {
		limit = 32
	}

	u := b.baseURL + "/search?query=" + url.QueryEscape(query) + "&limit=" + strconv.Itoa(limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("icon search: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("icon search: unexpected status %d", resp.StatusCode)
	}

	var payload struct {
		Icons []string `json:"icons"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("icon search: decode response: %w", err)
	}
	if payload.Icons == nil {
		payload.Icons = []string{}
	}
	logrus.WithFields(logrus.Fields{"query": query, "results": len(payload.Icons)}).Debug("clipart search")
	return &SearchResult{Icons: payload.Icons}, nil
}

// FetchIcon downloads the vector source for a "prefix:name" identifier and
// parses it into a composite icon-group descriptor. The paths keep their
// original colors.
func (b *Bridge) FetchIcon(ctx context.Context, identifier string) (*core.IconProps, error) {
	prefix, name, ok := strings.Cut(identifier, ":")
	if !ok || prefix == "" || name == "" {
		return nil, fmt.Errorf("invalid icon identifier %q", identifier)
	}

	u := b.baseURL + "/" + url.PathEscape(prefix) + "/" + url.PathEscape(name) + ".svg"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch icon %s: %w", identifier, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch icon %s: unexpected status %d", identifier, resp.StatusCode)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	icon, err := oksvg.ReadIconStream(strings.NewReader(string(raw)))
	if err != nil {
		return nil, fmt.Errorf("parse icon %s: %w", identifier, err)
	}
	w, h := icon.ViewBox.W, icon.ViewBox.H
	if w <= 0 || h <= 0 {
		w, h = 24, 24
	}
	return &core.IconProps{
		SVG:       raw,
		PathCount: len(icon.SVGPaths),
		Width:     w,
		Height:    h,
	}, nil
}
