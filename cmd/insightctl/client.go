package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mindloom/mindloom/server/internal/model"
)

func newClient() *resty.Client {
	return resty.New().
		SetBaseURL(apiFlag).
		SetAuthToken(keyFlag).
		SetTimeout(60 * time.Second)
}

func runGenerate(c *resty.Client, out io.Writer) error {
	var run model.InsightRun
	resp, err := c.R().SetResult(&run).Post("/api/insights/generate")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return apiError(resp)
	}
	return printJSON(out, run)
}

func runList(c *resty.Client, limit int, out io.Writer) error {
	var result struct {
		Insights []model.InsightRun `json:"insights"`
		Count    int                `json:"count"`
	}
	req := c.R().SetResult(&result)
	if limit > 0 {
		req.SetQueryParam("limit", fmt.Sprintf("%d", limit))
	}
	resp, err := req.Get("/api/insights")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return apiError(resp)
	}
	for _, run := range result.Insights {
		mode := "narrative"
		if len(run.KeyInsights) > 0 {
			mode = fmt.Sprintf("%d key insights", len(run.KeyInsights))
		}
		fmt.Fprintf(out, "%s  %s .. %s  trend=%s  %s\n",
			run.InsightID,
			run.WindowStart.Format("2006-01-02"),
			run.WindowEnd.Format("2006-01-02"),
			run.MoodTrend,
			mode)
	}
	fmt.Fprintf(out, "%d insight(s)\n", result.Count)
	return nil
}

func runDelete(c *resty.Client, insightID string, out io.Writer) error {
	resp, err := c.R().Delete("/api/insights/" + insightID)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return apiError(resp)
	}
	fmt.Fprintf(out, "deleted %s\n", insightID)
	return nil
}

func runLogMood(c *resty.Client, day, emotion string, intensity int, note string, out io.Writer) error {
	if day == "" {
		day = time.Now().UTC().Format("2006-01-02")
	}
	payload := map[string]interface{}{
		"day":       day,
		"emotion":   emotion,
		"intensity": intensity,
	}
	if note != "" {
		payload["note"] = note
	}

	var entry model.MoodEntry
	resp, err := c.R().SetBody(payload).SetResult(&entry).Post("/api/moods")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return apiError(resp)
	}
	return printJSON(out, entry)
}

func apiError(resp *resty.Response) error {
	var er struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(resp.Body(), &er); err == nil && er.Message != "" {
		return fmt.Errorf("http %d: %s", resp.StatusCode(), er.Message)
	}
	return fmt.Errorf("http %d: %s", resp.StatusCode(), resp.String())
}

func printJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
