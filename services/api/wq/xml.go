package wq

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/hydrolab-nz/hydro-dataset-viewer/services/api/catalog"
)

// timestampLayout is the wall-clock format the service uses for <T>.
const timestampLayout = "2006-01-02T15:04:05"

// hilltopResponse accepts both the <Hilltop> data root and the
// <HilltopServer> error root.
type hilltopResponse struct {
	Agency       string               `xml:"Agency"`
	Error        string               `xml:"Error"`
	Measurements []measurementElement `xml:"Measurement"`
}

type measurementElement struct {
	SiteName   string            `xml:"SiteName,attr"`
	DataSource dataSourceElement `xml:"DataSource"`
	Data       dataElement       `xml:"Data"`
}

type dataSourceElement struct {
	Name  string `xml:"Name,attr"`
	Units string `xml:"ItemInfo>Units"`
}

type dataElement struct {
	DateFormat string         `xml:"DateFormat,attr"`
	Items      []valueElement `xml:"E"`
}

type valueElement struct {
	T  string `xml:"T"`
	I1 string `xml:"I1"`
}

// parseResult is one decoded response.
type parseResult struct {
	observations []catalog.Observation
	skipped      int
}

// parseGetData decodes a GetData response body. Censored values ("<x", ">x")
// are resolved with dtl; blank or non-numeric values are skipped.
func parseGetData(r io.Reader, siteID string, dtl catalog.DetectionLimitMethod) (parseResult, error) {
	var doc hilltopResponse
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return parseResult{}, fmt.Errorf("decode response: %w", err)
	}
	if doc.Error != "" {
		if isNoData(doc.Error) {
			return parseResult{observations: []catalog.Observation{}}, nil
		}
		return parseResult{}, fmt.Errorf("service error: %s", strings.TrimSpace(doc.Error))
	}

	res := parseResult{observations: make([]catalog.Observation, 0)}
	for _, m := range doc.Measurements {
		site := m.SiteName
		if site == "" {
			site = siteID
		}
		for _, e := range m.Data.Items {
			ts, err := time.Parse(timestampLayout, strings.TrimSpace(e.T))
			if err != nil {
				return parseResult{}, fmt.Errorf("invalid timestamp %q: %w", e.T, err)
			}
			v, ok := parseValue(e.I1, dtl)
			if !ok {
				res.skipped++
				continue
			}
			res.observations = append(res.observations, catalog.Observation{SiteID: site, Timestamp: ts, Value: v})
		}
	}
	return res, nil
}

// parseValue reads a plain or censored numeric value.
func parseValue(raw string, dtl catalog.DetectionLimitMethod) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	var qualifier byte
	if s[0] == '<' || s[0] == '>' {
		qualifier = s[0]
		s = strings.TrimSpace(s[1:])
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if qualifier != 0 {
		return dtl.CensoredValue(qualifier, v), true
	}
	return v, true
}

func isNoData(msg string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(msg)), "no data")
}
