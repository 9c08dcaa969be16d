// services/oracle_client.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// VerificationModelID is the single model used for every verification
// request. Not parameterizable per bounty.
const VerificationModelID = "verdict-binary-v1"

// VerdictYes is the byte-exact token the registry pays out on. Anything
// else — including "yes", "Yes" or trailing whitespace — reopens the bounty.
const VerdictYes = "YES"

const promptSeparator = "\n---\n"

const promptInstruction = "Does the answer above correctly and completely answer the question above? " +
	"Reply with exactly YES or NO and nothing else."

// BuildVerificationPrompt assembles the prompt sent to the oracle:
// the literal question, the literal candidate answer, and a fixed
// instruction demanding a binary verdict token. The verdict handling in
// BountyService compares the oracle's output byte-for-byte against
// VerdictYes, so this phrasing is part of the wire contract.
func BuildVerificationPrompt(question, answer string) string {
	return question + promptSeparator + answer + promptSeparator + promptInstruction
}

// OracleVerifier is what the registry needs from the oracle boundary.
type OracleVerifier interface {
	EstimateFee(ctx context.Context, modelID string) (uint64, error)
	RequestVerification(ctx context.Context, modelID, prompt string, fee uint64) (string, error)
}

// OracleClient talks to the external verification service over HTTP.
type OracleClient struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

func NewOracleClient(baseURL, token string) *OracleClient {
	return &OracleClient{
		BaseURL: baseURL,
		Token:   token,
		Client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// EstimateFee asks the oracle what a verification currently costs.
// Pure query, no side effect.
func (c *OracleClient) EstimateFee(ctx context.Context, modelID string) (uint64, error) {
	url := fmt.Sprintf("%s/v1/fees?model=%s", c.BaseURL, modelID)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)

	resp, err := c.Client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	if resp.StatusCode != http.StatusOK {
		log.Printf("Oracle /v1/fees returned %d: %s", resp.StatusCode, string(body))
		return 0, fmt.Errorf("%w: fee estimate returned %d", ErrServiceUnavailable, resp.StatusCode)
	}

	var out struct {
		Fee uint64 `json:"fee"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return 0, fmt.Errorf("%w: bad fee response: %v", ErrServiceUnavailable, err)
	}

	return out.Fee, nil
}

// RequestVerification submits a prompt plus fee to the oracle and returns
// the service-assigned request id used to correlate the later verdict
// callback. The fee leaves custody for good the moment this call succeeds.
func (c *OracleClient) RequestVerification(ctx context.Context, modelID, prompt string, fee uint64) (string, error) {
	url := fmt.Sprintf("%s/v1/verifications", c.BaseURL)

	reqBody := map[string]interface{}{
		"model":  modelID,
		"prompt": prompt,
		"fee":    fee,
	}
	jsonData, _ := json.Marshal(reqBody)

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.Token)

	resp, err := c.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	switch {
	case resp.StatusCode == http.StatusPaymentRequired:
		return "", ErrInsufficientFee
	case resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated:
		log.Printf("Oracle /v1/verifications returned %d: %s", resp.StatusCode, string(body))
		return "", fmt.Errorf("%w: verification request returned %d", ErrServiceUnavailable, resp.StatusCode)
	}

	var out struct {
		RequestID string `json:"request_id"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("%w: bad verification response: %v", ErrServiceUnavailable, err)
	}
	if out.RequestID == "" {
		return "", fmt.Errorf("%w: oracle returned empty request id", ErrServiceUnavailable)
	}

	return out.RequestID, nil
}
