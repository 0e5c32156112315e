package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"tieba-server/services/messaging-api/internal/utils/platformerrors"
)

const (
	MaxContentLength  = 5000
	MaxTitleLength    = 200
	MaxAttachments    = 9
	MaxGroupMembers   = 200
	attachmentKeyRoot = "message_attachments"
)

// CreateInput is the payload of an explicit conversation creation.
type CreateInput struct {
	ParticipantIDs []uint           `validate:"required,min=1,max=200,dive,required"`
	Title          string           `validate:"max=200"`
	Type           ConversationType `validate:"omitempty,oneof=private group"`
}

// AttachmentInput is a raw file sent along with a message.
type AttachmentInput struct {
	FileName string `validate:"required,max=255"`
	Data     []byte `validate:"required"`
}

// SendInput posts a message into an existing conversation.
type SendInput struct {
	ConversationID uint              `validate:"required"`
	Content        string            `validate:"max=5000"`
	Type           MessageType       `validate:"omitempty,oneof=text image file"`
	Attachments    []AttachmentInput `validate:"max=9,dive"`
}

// DirectInput posts a message to a user, resolving the private conversation.
type DirectInput struct {
	RecipientID uint        `validate:"required"`
	Content     string      `validate:"required,max=5000"`
	Type        MessageType `validate:"omitempty,oneof=text image file"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func validateInput(ctx context.Context, input any) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "invalid request", err, "134956c6-5e0a-4be2-9423-9f998e236cd9")
	}

	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		parts = append(parts, describeFieldError(fe))
	}
	return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, strings.Join(parts, "; "), err, "7805cd1f-acb8-4529-a5af-2122f2a3039f")
}

func describeFieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must contain at least %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
