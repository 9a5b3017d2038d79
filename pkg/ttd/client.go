// Package ttd is the HTTP client for the institute's timetable division
// system, the downstream consumer of a completed allocation.
package ttd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"acadflow/backend/config"
)

const googleTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

// SectionPush is one section descriptor in a course push.
type SectionPush struct {
	// Label is the type letter plus ordinal, e.g. "L1", "T2", "P1".
	Label         string   `json:"label"`
	InstructorIDs []string `json:"instructorIds"`
}

// CoursePush is the projection of one master allocation.
type CoursePush struct {
	CourseID string        `json:"courseId"`
	Active   bool          `json:"active"`
	Sections []SectionPush `json:"sections"`
	RoomIDs  []string      `json:"roomIds"`
	ICID     string        `json:"icId"`
}

// Client talks to the timetable division API.
type Client interface {
	// VerifyIdentityToken checks the caller's Google ID token against the
	// issuer before any allocation data leaves the system.
	VerifyIdentityToken(ctx context.Context, idToken string) error
	// PushCourse uploads one course's allocation.
	PushCourse(ctx context.Context, course *CoursePush) error
}

type client struct {
	baseURL        string
	apiKey         string
	googleClientID string
	httpClient     *http.Client
}

// NewClient builds a Client from TTD config.
func NewClient(cfg *config.TTDConfig, googleClientID string) Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &client{
		baseURL:        cfg.BaseURL,
		apiKey:         cfg.APIKey,
		googleClientID: googleClientID,
		httpClient:     &http.Client{Timeout: timeout},
	}
}

func (c *client) VerifyIdentityToken(ctx context.Context, idToken string) error {
	q := url.Values{"id_token": {idToken}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, googleTokenInfoURL+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("tokeninfo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("identity token rejected by issuer (status %d)", resp.StatusCode)
	}

	var info struct {
		Aud string `json:"aud"`
		Exp string `json:"exp"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return fmt.Errorf("decode tokeninfo response: %w", err)
	}

	if c.googleClientID != "" && info.Aud != c.googleClientID {
		return fmt.Errorf("identity token audience mismatch")
	}
	if exp, err := strconv.ParseInt(info.Exp, 10, 64); err == nil {
		if time.Unix(exp, 0).Before(time.Now()) {
			return fmt.Errorf("identity token expired")
		}
	}

	return nil
}

func (c *client) PushCourse(ctx context.Context, course *CoursePush) error {
	body, err := json.Marshal(course)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/courses/"+url.PathEscape(course.CourseID)+"/allocation",
		bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("push course %s: %w", course.CourseID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("push course %s: status %d: %s", course.CourseID, resp.StatusCode, string(msg))
	}

	return nil
}
