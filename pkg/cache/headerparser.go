package cache

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ParseCacheHeaders is the pure function at the heart of the cache: given a
// response body and its headers, it derives an Entry with SoftTTL/TTL set
// from Cache-Control/Expires, or reports cacheable=false when the response
// must not be cached at all (no-store/no-cache).
//
// Cache-Control, when present, wins over Expires entirely (even if it sets
// no explicit lifetime). must-revalidate/proxy-revalidate pin SoftTTL to
// TTL; every other response also gets SoftTTL == TTL, i.e. no background
// refresh window. ParseCacheHeaders has no option to widen the gap.
func ParseCacheHeaders(data []byte, headers Headers, now time.Time) (entry *Entry, cacheable bool) {
	serverDate := now.UnixMilli()
	if dateStr := headers.Get("Date"); dateStr != "" {
		if t, err := http.ParseTime(dateStr); err == nil {
			serverDate = t.UnixMilli()
		}
	}

	var lastModified int64
	if lm := headers.Get("Last-Modified"); lm != "" {
		if t, err := http.ParseTime(lm); err == nil {
			lastModified = t.UnixMilli()
		}
	}

	etag := headers.Get("ETag")

	var lifetimeMs int64
	haveLifetime := false

	if cc := headers.Get("Cache-Control"); cc != "" {
		for _, directive := range strings.Split(cc, ",") {
			directive = strings.TrimSpace(strings.ToLower(directive))
			switch {
			case directive == "no-cache" || directive == "no-store":
				return nil, false
			case strings.HasPrefix(directive, "max-age="):
				if secs, err := strconv.ParseInt(strings.TrimPrefix(directive, "max-age="), 10, 64); err == nil {
					lifetimeMs = secs * 1000
					haveLifetime = true
				}
			case directive == "must-revalidate" || directive == "proxy-revalidate":
				// Falls through to the default SoftTTL == TTL pinning below;
				// listed explicitly because it is the directive that makes
				// that pinning mandatory rather than incidental.
			}
		}
		if !haveLifetime {
			lifetimeMs = 0
			haveLifetime = true
		}
	} else if expiresStr := headers.Get("Expires"); expiresStr != "" {
		if expires, err := http.ParseTime(expiresStr); err == nil {
			lifetimeMs = expires.UnixMilli() - serverDate
			haveLifetime = true
		}
	}

	if !haveLifetime {
		lifetimeMs = 0
	}
	if lifetimeMs < 0 {
		lifetimeMs = 0
	}

	// TTL is always pinned equal to SoftTTL, must-revalidate or not; no
	// wider background-refresh window is ever derived here.
	nowMs := now.UnixMilli()
	softTTL := nowMs + lifetimeMs
	ttl := softTTL

	return &Entry{
		Data:            data,
		ETag:            etag,
		ServerDate:      serverDate,
		LastModified:    lastModified,
		TTL:             ttl,
		SoftTTL:         softTTL,
		ResponseHeaders: headers.Clone(),
	}, true
}

// ParseCharset extracts the charset parameter from a Content-Type header,
// defaulting to ISO-8859-1 for text/* content with no explicit charset, per
// the HTTP/1.1 default.
func ParseCharset(headers Headers) string {
	ct := headers.Get("Content-Type")
	if ct == "" {
		return "ISO-8859-1"
	}
	parts := strings.Split(ct, ";")
	mimeType := strings.TrimSpace(parts[0])
	for _, param := range parts[1:] {
		param = strings.TrimSpace(param)
		if strings.HasPrefix(strings.ToLower(param), "charset=") {
			return strings.Trim(param[len("charset="):], `"`)
		}
	}
	if strings.HasPrefix(mimeType, "text/") {
		return "ISO-8859-1"
	}
	return "ISO-8859-1"
}
