package mimetype

import (
	"golang.org/x/xerrors"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	// ErrEmptyAccept is returned when there are no media ranges to parse.
	ErrEmptyAccept = xerrors.New("accept set is empty")
	// ErrMalformedAccept is returned when a media range cannot be parsed.
	ErrMalformedAccept = xerrors.New("accept set is malformed")
	// ErrNothingAcceptable is returned when every media range was refused with q=0.
	ErrNothingAcceptable = xerrors.New("no media range is acceptable")
)

var qualityPattern = regexp.MustCompile(`^(?:0(?:\.[0-9]{0,3})?|1(?:\.0{0,3})?)$`)

/*
AcceptSet is the ordered list of mimetypes a client is willing to receive, most
preferred first. Build one per request with ParseAccept or NewAcceptSet and treat it as
read-only afterwards.
*/
type AcceptSet []MimeType

// NewAcceptSet builds an AcceptSet from mimetypes already in preference order. Each
// value is normalised through FromString. Blank values are rejected.
func NewAcceptSet(mimeTypes ...string) (AcceptSet, error) {
	if len(mimeTypes) == 0 {
		return nil, ErrEmptyAccept
	}

	acceptSet := make(AcceptSet, 0, len(mimeTypes))
	for _, value := range mimeTypes {
		mimeType := FromString(value)
		if mimeType == UNKNOWN {
			return nil, xerrors.Errorf("blank mimetype: %w", ErrMalformedAccept)
		}
		acceptSet = append(acceptSet, mimeType)
	}

	return acceptSet.dedupe(), nil
}

// Preference order is decided by q-value; equal q-values keep header order.
type mediaRange struct {
	mimeType MimeType
	quality  float64
}

// AcceptFromHeader parses the Accept header of a request or message.
func AcceptFromHeader(headers headerFetcher) (AcceptSet, error) {
	return ParseAccept(headers.Get("Accept"))
}

// ParseAccept parses an HTTP Accept header value such as
//
//	text/html, application/json;q=0.9, */*;q=0.1
//
// into an AcceptSet sorted by descending quality. Ranges with q=0 are dropped and
// duplicate ranges keep their first position.
//
// Errors wrap ErrEmptyAccept when the value is blank, ErrMalformedAccept when a range has
// no subtype or an invalid q-value, and ErrNothingAcceptable when every range was
// refused.
func ParseAccept(header string) (AcceptSet, error) {
	acceptSet, _, err := ParseAcceptRefused(header)
	return acceptSet, err
}

// ParseAcceptRefused is ParseAccept that also returns the ranges the client refused
// with q=0, in header order. A wildcard in the AcceptSet must not resolve to a type
// covered by one of them.
func ParseAcceptRefused(header string) (acceptSet AcceptSet, refused AcceptSet, err error) {
	if strings.TrimSpace(header) == "" {
		return nil, nil, ErrEmptyAccept
	}

	parts := strings.Split(header, ",")
	ranges := make([]mediaRange, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		// Empty list elements are allowed by RFC 9110.
		if part == "" {
			continue
		}

		parsed, err := parseMediaRange(part)
		if err != nil {
			return nil, nil, err
		}
		if parsed.quality == 0 {
			refused = append(refused, parsed.mimeType)
			continue
		}
		ranges = append(ranges, parsed)
	}

	if len(ranges) == 0 {
		if len(refused) > 0 {
			return nil, nil, ErrNothingAcceptable
		}
		return nil, nil, ErrEmptyAccept
	}

	sort.SliceStable(ranges, func(i, j int) bool {
		return ranges[i].quality > ranges[j].quality
	})

	acceptSet = make(AcceptSet, len(ranges))
	for index, parsed := range ranges {
		acceptSet[index] = parsed.mimeType
	}

	return acceptSet.dedupe(), refused.dedupe(), nil
}

// Parses a single media range entry like "application/json;q=0.8".
func parseMediaRange(value string) (mediaRange, error) {
	params := strings.Split(value, ";")
	rawType := strings.TrimSpace(params[0])

	if rawType != "*" {
		slash := strings.IndexByte(rawType, '/')
		if slash <= 0 || slash == len(rawType)-1 {
			return mediaRange{}, xerrors.Errorf(
				"media range %q: %w", rawType, ErrMalformedAccept,
			)
		}
	}

	parsed := mediaRange{mimeType: FromString(rawType), quality: 1.0}

	for _, param := range params[1:] {
		param = strings.TrimSpace(param)
		if !strings.HasPrefix(param, "q=") && !strings.HasPrefix(param, "Q=") {
			continue
		}

		quality, err := parseQuality(param[2:])
		if err != nil {
			return mediaRange{}, xerrors.Errorf(
				"quality %q for %q: %w", param[2:], rawType, err,
			)
		}
		parsed.quality = quality
	}

	return parsed, nil
}

// Parses a qvalue, which RFC 9110 limits to "0" or "1" followed by at most three
// decimals, so values like "NaN", "1e-1" or "0.5000" are malformed.
func parseQuality(value string) (float64, error) {
	if !qualityPattern.MatchString(value) {
		return 0, ErrMalformedAccept
	}
	quality, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, ErrMalformedAccept
	}
	return quality, nil
}

func (acceptSet AcceptSet) dedupe() AcceptSet {
	seen := make(map[MimeType]struct{}, len(acceptSet))
	deduped := acceptSet[:0]

	for _, mimeType := range acceptSet {
		if _, ok := seen[mimeType]; ok {
			continue
		}
		seen[mimeType] = struct{}{}
		deduped = append(deduped, mimeType)
	}

	return deduped
}

// Strings returns the mimetypes as plain strings, in preference order.
func (acceptSet AcceptSet) Strings() []string {
	values := make([]string, len(acceptSet))
	for index, mimeType := range acceptSet {
		values[index] = string(mimeType)
	}
	return values
}

// String renders the set the way it would appear in an Accept header.
func (acceptSet AcceptSet) String() string {
	return strings.Join(acceptSet.Strings(), ", ")
}
