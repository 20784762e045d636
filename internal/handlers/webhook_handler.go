package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/gin-gonic/gin"
	"github.com/jeffleon2/draftea-checkout-service/internal/models"
	"github.com/jeffleon2/draftea-checkout-service/internal/webhook"
	"github.com/sirupsen/logrus"
)

const SignatureHeader = "X-Signature"

type WebhookProcessor interface {
	HandleWebhook(ctx context.Context, payload []byte, signature string) webhook.Result
}

type WebhookHandler struct {
	Processor WebhookProcessor
}

func NewWebhookHandler(p WebhookProcessor) *WebhookHandler {
	return &WebhookHandler{Processor: p}
}

// POST /api/webhooks/lemonsqueezy
func (h *WebhookHandler) Receive(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, webhook.Result{Success: false, Message: "unreadable body"})
		return
	}
	result := h.Processor.HandleWebhook(c.Request.Context(), payload, c.GetHeader(SignatureHeader))
	c.JSON(resultStatus(result), result)
}

// HandleEvents consumes webhook deliveries relayed through Kafka.
func (h *WebhookHandler) HandleEvents(ctx context.Context, topic string, value []byte) error {
	if topic != models.WebhookRelayTopic {
		logrus.Errorf("topic not allowed %s", topic)
		return fmt.Errorf("topic not allowed %s", topic)
	}

	var msg models.WebhookRelayMessage
	if err := json.Unmarshal(value, &msg); err != nil {
		logrus.Errorf("Error parsing webhook relay message %s", err.Error())
		return fmt.Errorf("error parsing webhook relay message %w", err)
	}

	result := h.Processor.HandleWebhook(ctx, []byte(msg.Payload), msg.Signature)
	if !result.Success {
		return fmt.Errorf("relayed webhook rejected: %s", result.Message)
	}
	return nil
}

// HandleLambda adapts an API Gateway proxy request to the webhook processor.
func (h *WebhookHandler) HandleLambda(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	body := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return lambdaResponse(http.StatusBadRequest, webhook.Result{Success: false, Message: "invalid body encoding"})
		}
		body = decoded
	}

	result := h.Processor.HandleWebhook(ctx, body, headerValue(req.Headers, SignatureHeader))
	return lambdaResponse(resultStatus(result), result)
}

func lambdaResponse(status int, result webhook.Result) (events.APIGatewayProxyResponse, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return events.APIGatewayProxyResponse{}, fmt.Errorf("marshal webhook result: %w", err)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(raw),
	}, nil
}

// headerValue looks a header up case-insensitively; API Gateway forwards them as sent.
func headerValue(headers map[string]string, name string) string {
	if v, ok := headers[name]; ok {
		return v
	}
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

func resultStatus(result webhook.Result) int {
	if result.Success {
		return http.StatusOK
	}
	return http.StatusBadRequest
}
