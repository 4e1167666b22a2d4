// Package core provides the business logic for the ground-truth conversion
// pipeline.
//
// # Error Codes Reference
//
// This file defines operator-friendly error messages with codes for support
// reference. When a run fails, the code printed alongside the message can be
// quoted for faster diagnosis.
//
// Error codes are grouped by category:
//
// # Input Errors (INP001-INP099)
//
// Errors reading or interpreting the hierarchical export:
//
//	INP001 - Input unavailable: The input CSV is missing or unreadable
//	         Action: Check INPUT_PATH points at the exported ground-truth CSV
//	         Patterns: "input file missing or unreadable"
//
//	INP002 - No documents: The input parsed to zero document records
//	         Action: Verify the export contains "Document (N)" marker rows
//	         Patterns: "no document records"
//
// # Validation Errors (VAL001-VAL099)
//
// Errors raised by the round-trip validation gate:
//
//	VAL001 - Validation blocked: The flat artifact did not round-trip
//	         Action: Review the reported discrepancies; nothing was persisted
//	         Patterns: "round-trip validation"
//
// # Publish Errors (PUB001-PUB099)
//
// Errors uploading or verifying artifacts in S3:
//
//	PUB001 - Artifact upload failed
//	         Action: Check AWS credentials and bucket access, then re-run
//	         Patterns: "uploading flat artifact"
//
//	PUB002 - Pointer upload failed: The artifact uploaded but LATEST did not
//	         Action: Re-run publish; consumers still see the previous version
//	         Patterns: "uploading pointer"
//
//	PUB003 - Remote verification failed
//	         Action: Confirm the objects exist in the bucket before relying on them
//	         Patterns: "verifying", "reading pointer back"
//
//	PUB004 - Pointer mismatch: The remote pointer does not resolve to the
//	         uploaded artifact
//	         Action: Re-run publish to rewrite the pointer
//	         Patterns: "remote pointer"
//
// # Deployment Errors (DEP001-DEP099)
//
// Errors restarting the consuming deployments:
//
//	DEP001 - Rollout failed
//	         Action: Restart the deployment manually with kubectl
//	         Patterns: "rollout"
//
//	DEP002 - kubectl failed
//	         Action: Check kubectl is installed and the kubeconfig context is right
//	         Patterns: "kubectl"
//
// # Run Errors (RUN001-RUN099)
//
// Errors from the run lifecycle itself:
//
//	RUN001 - Run cancelled
//	         Action: Start a new run when ready
//	         Patterns: "context canceled"
//
//	RUN002 - Run timed out
//	         Action: Raise PUBLISH_TIMEOUT or check network connectivity
//	         Patterns: "context deadline exceeded"
//
// # Infrastructure Errors (HIST001, AWS001)
//
//	HIST001 - History ledger unavailable
//	          Action: Check HISTORY_DB_PATH is writable
//	          Patterns: "history db"
//
//	AWS001 - AWS request failed
//	         Action: Check credentials, region, and bucket configuration
//	         Patterns: "operation error", "failed to retrieve credentials"
//
// # Default Error (ERR000)
//
// Fallback when no specific pattern matches:
//
//	ERR000 - Unknown error: An unexpected error occurred
//	         Action: Check the logs and try again
//
// # Pattern Matching
//
// Error patterns are matched case-insensitively using strings.Contains.
// The first matching pattern wins, so more specific patterns should be
// defined before general ones.
package core

import (
	"fmt"
	"strings"
)

// UserMessage provides operator-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
// Patterns are matched using strings.Contains, so partial matches work.
// The first matching pattern wins, so order matters:
//   - More specific patterns should come before general ones
//   - Multiple patterns can map to the same error code
var errorPatterns = []errorPattern{
	// =========================================================================
	// Input Errors (INP001-INP002)
	// These errors occur before anything is parsed.
	// =========================================================================
	{
		pattern: "input file missing or unreadable",
		msg: UserMessage{
			Message: "The input CSV is missing or unreadable",
			Action:  "Check INPUT_PATH points at the exported ground-truth CSV",
			Code:    "INP001",
		},
	},
	{
		pattern: "no document records",
		msg: UserMessage{
			Message: "The input parsed to zero document records",
			Action:  "Verify the export contains \"Document (N)\" marker rows",
			Code:    "INP002",
		},
	},

	// =========================================================================
	// Validation Errors (VAL001)
	// The round-trip gate refused to persist.
	// =========================================================================
	{
		pattern: "round-trip validation",
		msg: UserMessage{
			Message: "The flat artifact did not round-trip back to the parsed records",
			Action:  "Review the reported discrepancies; nothing was persisted",
			Code:    "VAL001",
		},
	},

	// =========================================================================
	// Publish Errors (PUB001-PUB004)
	// Upload or remote verification failed after a valid conversion.
	// =========================================================================
	{
		pattern: "uploading flat artifact",
		msg: UserMessage{
			Message: "The flat artifact failed to upload",
			Action:  "Check AWS credentials and bucket access, then re-run",
			Code:    "PUB001",
		},
	},
	{
		pattern: "uploading pointer",
		msg: UserMessage{
			Message: "The artifact uploaded but the LATEST pointer did not",
			Action:  "Re-run publish; consumers still see the previous version",
			Code:    "PUB002",
		},
	},
	{
		pattern: "verifying",
		msg: UserMessage{
			Message: "The uploaded objects could not be verified remotely",
			Action:  "Confirm the objects exist in the bucket before relying on them",
			Code:    "PUB003",
		},
	},
	{
		pattern: "reading pointer back",
		msg: UserMessage{
			Message: "The uploaded pointer could not be read back",
			Action:  "Confirm the objects exist in the bucket before relying on them",
			Code:    "PUB003",
		},
	},
	{
		pattern: "remote pointer",
		msg: UserMessage{
			Message: "The remote pointer does not resolve to the uploaded artifact",
			Action:  "Re-run publish to rewrite the pointer",
			Code:    "PUB004",
		},
	},

	// =========================================================================
	// Deployment Errors (DEP001-DEP002)
	// Consumer restarts went wrong; the publish itself already succeeded.
	// =========================================================================
	{
		pattern: "rollout",
		msg: UserMessage{
			Message: "A consumer deployment did not roll out",
			Action:  "Restart the deployment manually with kubectl",
			Code:    "DEP001",
		},
	},
	{
		pattern: "kubectl",
		msg: UserMessage{
			Message: "kubectl could not be run",
			Action:  "Check kubectl is installed and the kubeconfig context is right",
			Code:    "DEP002",
		},
	},

	// =========================================================================
	// Run Errors (RUN001-RUN002)
	// The run lifecycle was interrupted.
	// =========================================================================
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "The run was cancelled",
			Action:  "Start a new run when ready",
			Code:    "RUN001",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "The run timed out",
			Action:  "Raise PUBLISH_TIMEOUT or check network connectivity",
			Code:    "RUN002",
		},
	},

	// =========================================================================
	// Infrastructure Errors (HIST001, AWS001)
	// =========================================================================
	{
		pattern: "history db",
		msg: UserMessage{
			Message: "The run history ledger is unavailable",
			Action:  "Check HISTORY_DB_PATH is writable",
			Code:    "HIST001",
		},
	},
	{
		pattern: "failed to retrieve credentials",
		msg: UserMessage{
			Message: "AWS credentials could not be resolved",
			Action:  "Check credentials, region, and bucket configuration",
			Code:    "AWS001",
		},
	},
	{
		pattern: "operation error",
		msg: UserMessage{
			Message: "An AWS request failed",
			Action:  "Check credentials, region, and bucket configuration",
			Code:    "AWS001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
// Operators should check the logs for the original technical error when a
// run reports ERR000.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Check the logs and try again",
	Code:    "ERR000",
}

// MapError converts a technical error to an operator-friendly message.
// It searches through known error patterns (case-insensitive) and returns
// the first match. If no pattern matches, a generic fallback message with
// code ERR000 is returned.
//
// Example:
//
//	err := errors.New("uploading flat artifact: access denied")
//	msg := MapError(err)
//	// msg.Code == "PUB001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
//
// Example output: "The input CSV is missing or unreadable (Code: INP001). Check INPUT_PATH points at the exported ground-truth CSV"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing checks if an error matches a known pattern and should be shown
// as mapped guidance. Returns true if the error matches a specific pattern
// (not the generic ERR000 fallback).
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	msg := MapError(err)
	return msg.Code != defaultMessage.Code
}
