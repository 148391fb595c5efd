package config

import (
	"reflect"
	"strings"

	"github.com/evidark-org/evidark/internal/constant"

	"github.com/go-playground/validator/v10"
)

func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("chat_type", validateChatType)
	_ = v.RegisterValidation("message_type", validateMessageType)
	_ = v.RegisterValidation("attachment_type", validateAttachmentType)
	_ = v.RegisterValidation("notblank", validateNotBlank)
	return v
}

func validateChatType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case constant.ChatTypePrivate, constant.ChatTypeGroup:
		return true
	}
	return false
}

// validateMessageType accepts the types a client may send. System messages
// are only created by the server.
func validateMessageType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case constant.MessageTypeText, constant.MessageTypeImage, constant.MessageTypeFile:
		return true
	}
	return false
}

func validateAttachmentType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case constant.AttachmentTypeImage, constant.AttachmentTypeFile, constant.AttachmentTypeAudio, constant.AttachmentTypeVideo:
		return true
	}
	return false
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}
