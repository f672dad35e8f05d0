package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Gender is the shopping preference sent to /get_url.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Genders lists the selectable genders in display order.
var Genders = []Gender{GenderMale, GenderFemale}

// ParseGender accepts "male" or "female" in any case.
func ParseGender(s string) (Gender, error) {
	g := Gender(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Genders {
		if g == known {
			return g, nil
		}
	}
	return "", fmt.Errorf("unknown gender %q", s)
}

// Label is the capitalised name shown in pickers.
func (g Gender) Label() string {
	if g == "" {
		return ""
	}
	return strings.ToUpper(string(g[:1])) + string(g[1:])
}

// Platform is a shopping site the backend can resolve product links for.
type Platform string

const (
	PlatformAmazon   Platform = "Amazon"
	PlatformFlipkart Platform = "Flipkart"
	PlatformZappos   Platform = "Zappos"
)

// Platforms lists the supported platforms in display order.
var Platforms = []Platform{PlatformAmazon, PlatformFlipkart, PlatformZappos}

// ParsePlatform matches s against Platforms case-insensitively.
func ParsePlatform(s string) (Platform, error) {
	for _, p := range Platforms {
		if strings.EqualFold(string(p), strings.TrimSpace(s)) {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown platform %q", s)
}

// Wire is the lowercase form the backend expects.
func (p Platform) Wire() string {
	return strings.ToLower(string(p))
}

// FootSize is a length in centimetres. It decodes from a JSON number or a
// numeric JSON string.
type FootSize float64

func (f *FootSize) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if strings.TrimSpace(s) == "" {
			*f = 0
			return nil
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return fmt.Errorf("foot size %q is not a number", s)
		}
		*f = FootSize(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = FootSize(v)
	return nil
}

// String renders the size the way the home screen shows it, e.g. "26.5 cm".
func (f FootSize) String() string {
	return strconv.FormatFloat(float64(f), 'f', -1, 64) + " cm"
}

// MeasurementResult is the JSON body of a successful /upload.
type MeasurementResult struct {
	FootSizeCM  FootSize `json:"foot_size_cm"`
	ImagePath   string   `json:"image_path,omitempty"`
	FootHeight  float64  `json:"foot_height,omitempty"`
	FootWidth   float64  `json:"foot_width,omitempty"`
	PaperHeight float64  `json:"paper_height,omitempty"`
	PaperWidth  float64  `json:"paper_width,omitempty"`
}

// ProductLinkRequest is the body of POST /get_url.
type ProductLinkRequest struct {
	Platform   string  `json:"platform"`
	Gender     Gender  `json:"gender"`
	FootSizeCM float64 `json:"foot_size_cm"`
}

// ProductLink is the JSON body of a successful /get_url.
type ProductLink struct {
	URL string `json:"url"`
}

// LoginResult is what /login may return. Both fields are optional.
type LoginResult struct {
	Message string `json:"message,omitempty"`
	UserID  int    `json:"user_id,omitempty"`
	Token   string `json:"token,omitempty"`
}

// ErrorBody is the error shape of every endpoint.
type ErrorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
