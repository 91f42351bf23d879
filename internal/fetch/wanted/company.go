package wanted

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/PuerkitoBio/goquery"

	"github.com/jobscope/harvester/internal/records"
)

// FetchCompany implements spider.CompanyClient. The company page is a
// Next.js app; everything useful lives in the dehydrated state embedded in
// the script#__NEXT_DATA__ tag.
func (c *Client) FetchCompany(ctx context.Context, companyURL string) (*records.RawCompanyProfile, error) {
	body, err := c.fetchBytes(ctx, companyURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse company page %s: %w", companyURL, err)
	}

	script := doc.Find("script#__NEXT_DATA__").First().Text()
	if script == "" {
		return nil, fmt.Errorf("company page %s: missing __NEXT_DATA__", companyURL)
	}

	var nextData map[string]any
	if err := json.Unmarshal([]byte(script), &nextData); err != nil {
		return nil, fmt.Errorf("decode __NEXT_DATA__ %s: %w", companyURL, err)
	}

	info := queryData(nextData, "companyInfo")
	if info == nil {
		// Single-query pages carry the profile in the first entry.
		info = firstQueryData(nextData)
	}
	if info == nil {
		return nil, fmt.Errorf("company page %s: no company data in dehydrated state", companyURL)
	}

	raw := &records.RawCompanyProfile{
		CompanyURL: companyURL,
		CrawledAt:  c.clock.Now(),
		Features:   companyFeatures(info),
		Address:    companyAddress(info),
		SourceData: nextData,
	}
	if name, ok := digString(info, "name"); ok {
		raw.Name = &name
	}
	if salary, ok := digInt(info, "salary", "salary"); ok {
		raw.AvgSalary = &salary
	}
	return raw, nil
}

// avgEntrySalary pulls the new-hire salary out of the companySummary query
// of a dehydrated page payload.
func avgEntrySalary(nextData map[string]any) *int {
	summary := queryData(nextData, "companySummary")
	if summary == nil {
		return nil
	}
	if v, ok := digInt(summary, "employee", "newbie_salary"); ok {
		return &v
	}
	return nil
}

// queryData finds the dehydrated query whose key starts with name and
// returns its state.data map.
func queryData(nextData map[string]any, name string) map[string]any {
	for _, q := range queries(nextData) {
		key, _ := q["queryKey"].([]any)
		if len(key) == 0 {
			continue
		}
		if s, ok := key[0].(string); ok && s == name {
			return stateData(q)
		}
	}
	return nil
}

func firstQueryData(nextData map[string]any) map[string]any {
	qs := queries(nextData)
	if len(qs) == 0 {
		return nil
	}
	return stateData(qs[0])
}

func queries(nextData map[string]any) []map[string]any {
	raw, ok := dig(nextData, "props", "pageProps", "dehydrateState", "queries")
	if !ok {
		return nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(list))
	for _, q := range list {
		if m, ok := q.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func stateData(q map[string]any) map[string]any {
	data, ok := dig(q, "state", "data")
	if !ok {
		return nil
	}
	m, _ := data.(map[string]any)
	return m
}

func companyFeatures(info map[string]any) []string {
	raw, ok := dig(info, "companyTags")
	if !ok {
		return nil
	}
	tags, ok := raw.([]any)
	if !ok {
		return nil
	}
	var features []string
	for _, t := range tags {
		m, ok := t.(map[string]any)
		if !ok {
			continue
		}
		if title, ok := m["title"].(string); ok && title != "" {
			features = append(features, title)
		}
	}
	return features
}

// companyAddress prefers the geocoded road address over the free-form
// full_location field.
func companyAddress(info map[string]any) records.Address {
	addr := records.Address{Country: "한국"}
	if v, ok := digString(info, "address", "country"); ok {
		addr.Country = v
	}
	addr.Location, _ = digString(info, "address", "location")
	addr.District, _ = digString(info, "address", "district")
	if road, ok := digString(info, "address", "geo_location", "n_location", "road_address"); ok && road != "" {
		addr.FullLocation = road
	} else {
		addr.FullLocation, _ = digString(info, "address", "full_location")
	}
	return addr
}

// dig walks nested map[string]any keys.
func dig(m map[string]any, keys ...string) (any, bool) {
	var cur any = m
	for _, k := range keys {
		node, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = node[k]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func digString(m map[string]any, keys ...string) (string, bool) {
	v, ok := dig(m, keys...)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func digInt(m map[string]any, keys ...string) (int, bool) {
	v, ok := dig(m, keys...)
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	if !ok || f == 0 {
		return 0, false
	}
	return int(f), true
}
