// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Leo Qin

package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/leoqin/mediabot/internal/logger"
)

// QASConnection carries the per-user quark-auto-save instance settings, API
// token already decrypted.
type QASConnection struct {
	Host     string
	APIToken string
}

// QASTask is one auto-save task of a quark-auto-save instance. Fields the
// bot does not manage are preserved verbatim across read-modify-write
// cycles through the extra map.
type QASTask struct {
	TaskName        string `json:"taskname"`
	ShareURL        string `json:"shareurl"`
	SavePath        string `json:"savepath"`
	Pattern         string `json:"pattern"`
	Replace         string `json:"replace"`
	StartFID        string `json:"startfid,omitempty"`
	IgnoreExtension bool   `json:"ignore_extension,omitempty"`

	extra map[string]json.RawMessage
}

func (t *QASTask) UnmarshalJSON(b []byte) error {
	type plain QASTask
	if err := json.Unmarshal(b, (*plain)(t)); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	for _, known := range []string{"taskname", "shareurl", "savepath", "pattern", "replace", "startfid", "ignore_extension"} {
		delete(raw, known)
	}
	t.extra = raw

	return nil
}

func (t QASTask) MarshalJSON() ([]byte, error) {
	type plain QASTask
	payload, err := json.Marshal(plain(t))
	if err != nil {
		return nil, err
	}

	if len(t.extra) == 0 {
		return payload, nil
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(payload, &merged); err != nil {
		return nil, err
	}
	for key, value := range t.extra {
		if _, ok := merged[key]; !ok {
			merged[key] = value
		}
	}

	return json.Marshal(merged)
}

// SetAria2AutoDownload toggles the aria2 auto-download addition on the task.
// Other addition settings round-trip unchanged.
func (t *QASTask) SetAria2AutoDownload(enable bool) {
	if t.extra == nil {
		t.extra = make(map[string]json.RawMessage)
	}

	addition := make(map[string]json.RawMessage)
	if raw, ok := t.extra["addition"]; ok {
		_ = json.Unmarshal(raw, &addition)
	}

	aria2, _ := json.Marshal(map[string]bool{"auto_download": enable})
	addition["aria2"] = aria2

	merged, _ := json.Marshal(addition)
	t.extra["addition"] = merged
}

// QASData is the configuration document of a quark-auto-save instance. Only
// the task list is modelled; every other top-level field round-trips
// unchanged.
type QASData struct {
	TaskList []QASTask

	extra map[string]json.RawMessage
}

func (d *QASData) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	if tasks, ok := raw["tasklist"]; ok {
		if err := json.Unmarshal(tasks, &d.TaskList); err != nil {
			return err
		}
		delete(raw, "tasklist")
	}
	d.extra = raw

	return nil
}

func (d QASData) MarshalJSON() ([]byte, error) {
	merged := make(map[string]json.RawMessage, len(d.extra)+1)
	for key, value := range d.extra {
		merged[key] = value
	}

	tasks, err := json.Marshal(d.TaskList)
	if err != nil {
		return nil, err
	}
	merged["tasklist"] = tasks

	return json.Marshal(merged)
}

// QASShareFile is one file of a share-detail preview. FileNameRe carries the
// renamed file name for entries the task's pattern matched.
type QASShareFile struct {
	FileName   string `json:"file_name"`
	FileNameRe string `json:"file_name_re"`
	Dir        bool   `json:"dir"`
}

type qasClient struct {
	client *resty.Client
	logger *logger.Logger
}

// NewQASClient constructs a stateless [QASClient]. Each call addresses the
// instance named in its [QASConnection].
func NewQASClient(timeout time.Duration, logger *logger.Logger) QASClient {
	return &qasClient{
		client: newRestyClient("", timeout),
		logger: logger,
	}
}

func (q *qasClient) request(ctx context.Context, conn QASConnection) (*resty.Request, error) {
	if conn.Host == "" || conn.APIToken == "" {
		return nil, fmt.Errorf("%w: quark-auto-save host or token is empty", ErrNotConfigured)
	}

	return q.client.R().
		SetContext(ctx).
		SetQueryParam("token", conn.APIToken), nil
}

func qasURL(conn QASConnection, path string) string {
	return strings.TrimRight(conn.Host, "/") + path
}

func (q *qasClient) Data(ctx context.Context, conn QASConnection) (QASData, error) {
	req, err := q.request(ctx, conn)
	if err != nil {
		return QASData{}, err
	}
	resp, err := req.Get(qasURL(conn, "/data"))
	if err != nil {
		return QASData{}, fmt.Errorf("quark-auto-save data request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return QASData{}, err
	}

	var parsed struct {
		Data QASData `json:"data"`
	}
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return QASData{}, fmt.Errorf("decode quark-auto-save data response: %w", err)
	}

	return parsed.Data, nil
}

func (q *qasClient) AddTask(ctx context.Context, conn QASConnection, task QASTask) error {
	req, err := q.request(ctx, conn)
	if err != nil {
		return err
	}
	resp, err := req.
		SetHeader("Content-Type", "application/json").
		SetBody(task).
		Post(qasURL(conn, "/api/add_task"))
	if err != nil {
		return fmt.Errorf("quark-auto-save add task request: %w", err)
	}

	return mapHTTPError(resp)
}

func (q *qasClient) UpdateData(ctx context.Context, conn QASConnection, data QASData) error {
	req, err := q.request(ctx, conn)
	if err != nil {
		return err
	}
	resp, err := req.
		SetHeader("Content-Type", "application/json").
		SetBody(data).
		Post(qasURL(conn, "/update"))
	if err != nil {
		return fmt.Errorf("quark-auto-save update request: %w", err)
	}

	return mapHTTPError(resp)
}

func (q *qasClient) GetShareDetail(ctx context.Context, conn QASConnection, task QASTask) ([]QASShareFile, error) {
	req, err := q.request(ctx, conn)
	if err != nil {
		return nil, err
	}
	resp, err := req.
		SetHeader("Content-Type", "application/json").
		SetBody(task).
		Post(qasURL(conn, "/get_share_detail"))
	if err != nil {
		return nil, fmt.Errorf("quark-auto-save share detail request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, err
	}

	var parsed struct {
		Data struct {
			List []QASShareFile `json:"list"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return nil, fmt.Errorf("decode quark-auto-save share detail response: %w", err)
	}

	return parsed.Data.List, nil
}

func (q *qasClient) RunScript(ctx context.Context, conn QASConnection, taskList []int) (string, error) {
	req, err := q.request(ctx, conn)
	if err != nil {
		return "", err
	}
	resp, err := req.
		SetHeader("Content-Type", "application/json").
		SetBody(map[string][]int{"tasklist": taskList}).
		Post(qasURL(conn, "/run_script_now"))
	if err != nil {
		return "", fmt.Errorf("quark-auto-save run script request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return "", err
	}

	return stripSSEPrefixes(string(resp.Body())), nil
}

// stripSSEPrefixes removes the "data: " prefix the run-script endpoint puts
// on every output line.
func stripSSEPrefixes(output string) string {
	lines := strings.Split(output, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimPrefix(line, "data: ")
	}
	return strings.Join(lines, "\n")
}
