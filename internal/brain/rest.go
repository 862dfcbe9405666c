package brain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// RESTProvider talks to the legal-answer backend over plain JSON/HTTP.
type RESTProvider struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

func NewRESTProvider(baseURL, apiKey string) *RESTProvider {
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}
	return &RESTProvider{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client:  &http.Client{Timeout: 90 * time.Second},
	}
}

type chatReq struct {
	Message       string `json:"message"`
	Language      string `json:"language,omitempty"`
	Country       string `json:"country,omitempty"`
	Province      string `json:"province,omitempty"`
	LawCategory   string `json:"law_category,omitempty"`
	LawType       string `json:"law_type,omitempty"`
	Jurisdiction  string `json:"jurisdiction,omitempty"`
	OffenceNumber string `json:"offence_number,omitempty"`
	TopK          int    `json:"top_k,omitempty"`
}

// chatResp covers both variants the backend emits: a success body with an
// answer, or an error body ({"error": ...} or FastAPI-style {"detail": ...}).
type chatResp struct {
	Answer     string     `json:"answer"`
	Citations  []Citation `json:"citations"`
	ChunksUsed int        `json:"chunks_used"`
	Confidence *float64   `json:"confidence"`
	Error      string     `json:"error,omitempty"`
	Detail     string     `json:"detail,omitempty"`
}

func (p *RESTProvider) Ask(ctx context.Context, q Question) (*Answer, error) {
	if p.Client == nil {
		return nil, errors.New("brain: http client is nil")
	}

	b, err := json.Marshal(chatReq{
		Message:       q.Message,
		Language:      q.Language,
		Country:       q.Country,
		Province:      q.Province,
		LawCategory:   q.LawCategory,
		LawType:       q.LawType,
		Jurisdiction:  q.Jurisdiction,
		OffenceNumber: q.OffenceNumber,
		TopK:          q.TopK,
	})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/chat", p.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if p.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.APIKey)
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var decoded chatResp
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("brain: status %d", resp.StatusCode)
		}
		return nil, err
	}
	if msg := firstNonEmpty(decoded.Error, decoded.Detail); msg != "" {
		return nil, errors.New(msg)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("brain: status %d", resp.StatusCode)
	}
	if strings.TrimSpace(decoded.Answer) == "" {
		return nil, errors.New("brain: empty answer")
	}

	return &Answer{
		Text:       decoded.Answer,
		Citations:  decoded.Citations,
		ChunksUsed: decoded.ChunksUsed,
		Confidence: decoded.Confidence,
	}, nil
}

type uploadResp struct {
	DocID                 string `json:"doc_id"`
	ChunksIndexed         int    `json:"chunks_indexed"`
	DetectedOffenceNumber string `json:"detected_offence_number,omitempty"`
	Error                 string `json:"error,omitempty"`
	Detail                string `json:"detail,omitempty"`
}

func (p *RESTProvider) IngestDocument(ctx context.Context, ir IngestRequest) (*IngestResult, error) {
	if p.Client == nil {
		return nil, errors.New("brain: http client is nil")
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	fw, err := w.CreateFormFile("file", ir.Filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(fw, bytes.NewReader(ir.Content)); err != nil {
		return nil, err
	}
	if err := w.WriteField("user_id", ir.UserID); err != nil {
		return nil, err
	}
	if ir.OffenceNumber != "" {
		if err := w.WriteField("offence_number", ir.OffenceNumber); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/upload", p.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	if p.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.APIKey)
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var decoded uploadResp
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("brain: status %d", resp.StatusCode)
		}
		return nil, err
	}
	if msg := firstNonEmpty(decoded.Error, decoded.Detail); msg != "" {
		return nil, errors.New(msg)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("brain: status %d", resp.StatusCode)
	}
	if decoded.DocID == "" {
		return nil, errors.New("brain: upload response missing doc_id")
	}

	return &IngestResult{
		DocID:                 decoded.DocID,
		ChunksIndexed:         decoded.ChunksIndexed,
		DetectedOffenceNumber: decoded.DetectedOffenceNumber,
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
