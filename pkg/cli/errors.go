package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/chromedash/chromedash/pkg/client"
)

// StatusErrorMessages maps gateway status codes to human-readable messages
var StatusErrorMessages = map[int]string{
	http.StatusUnauthorized:        "Authentication failed - invalid or missing token",
	http.StatusForbidden:           "Access denied - you don't have permission for this action",
	http.StatusNotFound:            "Resource not found",
	http.StatusBadRequest:          "Invalid request parameters",
	http.StatusConflict:            "Resource already exists",
	http.StatusInternalServerError: "Internal server error",
	http.StatusBadGateway:          "Service unavailable - the gateway may be down or unreachable",
	http.StatusServiceUnavailable:  "Service unavailable - the gateway may be down or unreachable",
}

// StatusErrorSuggestions provides helpful suggestions for specific status codes
var StatusErrorSuggestions = map[int][]string{
	http.StatusUnauthorized: {
		"Sign in with " + CodeStyle.Render("chromedash login --email <email>"),
		"Check that your token is correct: " + CodeStyle.Render("--token <token>"),
	},
	http.StatusForbidden: {
		"Creating sessions and importing catalogs need the gateway admin token",
	},
	http.StatusServiceUnavailable: {
		"Check that the gateway is running",
		"Verify the gateway address: " + CodeStyle.Render("--gateway <addr>"),
	},
}

// FormatError converts an error to a human-readable message.
func FormatError(err error) string {
	if err == nil {
		return ""
	}

	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		if msg, ok := StatusErrorMessages[apiErr.StatusCode]; ok {
			desc := apiErr.Message
			if desc != "" && !strings.Contains(strings.ToLower(msg), strings.ToLower(desc)) {
				return fmt.Sprintf("%s (%s)", msg, desc)
			}
			return msg
		}
		return apiErr.Error()
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return "Request timed out"
	}

	var netErr *net.OpError
	if errors.As(err, &netErr) {
		return "Cannot reach the gateway"
	}

	return cleanErrorMessage(err.Error())
}

// GetErrorSuggestions returns helpful suggestions for an error
func GetErrorSuggestions(err error) []string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return StatusErrorSuggestions[apiErr.StatusCode]
	}

	var netErr *net.OpError
	if errors.As(err, &netErr) {
		return StatusErrorSuggestions[http.StatusServiceUnavailable]
	}
	return nil
}

// cleanErrorMessage keeps the first and last parts of deeply wrapped errors
func cleanErrorMessage(msg string) string {
	msg = strings.TrimPrefix(msg, "error: ")
	msg = strings.TrimPrefix(msg, "Error: ")

	if parts := strings.Split(msg, ": "); len(parts) > 3 {
		msg = parts[0] + ": " + parts[len(parts)-1]
	}
	return msg
}

// PrintFormattedError prints an error with styling and optional suggestions
func PrintFormattedError(title string, err error) {
	fmt.Println()
	PrintErrorMsg(title)

	if err != nil {
		fmt.Printf("  %s\n", DimStyle.Render(FormatError(err)))

		if suggestions := GetErrorSuggestions(err); len(suggestions) > 0 {
			PrintSuggestions("Suggestions:", suggestions)
		}
	}
	fmt.Println()
}
