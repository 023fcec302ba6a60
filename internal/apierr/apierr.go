// Package apierr writes JSON responses and the error envelope shared by
// handlers and middleware.
package apierr

import (
	"encoding/json"
	"net/http"
)

// Code identifies an error class in responses.
type Code string

const (
	CodeAuthenticationFailed Code = "authentication_failed"
	CodeNotAuthenticated     Code = "not_authenticated"
	CodePermissionDenied     Code = "permission_denied"
	CodeNotFound             Code = "not_found"
	CodeValidation           Code = "validation_error"
	CodeBadRequest           Code = "bad_request"
	CodeInvalidLicensePlate  Code = "invalid_license_plate"
	CodeInvalidMileage       Code = "invalid_mileage"
	CodeInvalidPhone         Code = "invalid_phone"
	CodeInvalidDate          Code = "invalid_date"
	CodeServiceCompleted     Code = "service_already_completed"
	CodeInvalidTransition    Code = "invalid_status_transition"
	CodeConflict             Code = "conflict"
	CodeEmergencyFailed      Code = "emergency_request_failed"
	CodeRateLimited          Code = "rate_limited"
	CodeServerError          Code = "server_error"
)

var messages = map[Code]string{
	CodeAuthenticationFailed: "احراز هویت ناموفق بود.",
	CodeNotAuthenticated:     "برای دسترسی به این بخش باید وارد شوید.",
	CodePermissionDenied:     "شما اجازه دسترسی به این بخش را ندارید.",
	CodeNotFound:             "آیتم مورد نظر یافت نشد.",
	CodeValidation:           "خطا در اعتبارسنجی داده‌ها.",
	CodeBadRequest:           "درخواست نامعتبر است.",
	CodeInvalidLicensePlate:  "فرمت پلاک نامعتبر است.",
	CodeInvalidMileage:       "کیلومتر نامعتبر است.",
	CodeInvalidPhone:         "شماره تلفن نامعتبر است.",
	CodeInvalidDate:          "تاریخ نامعتبر است.",
	CodeServiceCompleted:     "سرویس قبلاً تکمیل شده است.",
	CodeInvalidTransition:    "تغییر وضعیت سرویس مجاز نیست.",
	CodeConflict:             "این مورد قبلاً ثبت شده است.",
	CodeEmergencyFailed:      "درخواست اضطراری با خطا مواجه شد.",
	CodeRateLimited:          "تعداد درخواست‌ها بیش از حد مجاز است.",
	CodeServerError:          "خطای داخلی سرور.",
}

// Message returns the Persian message for code.
func Message(code Code) string {
	if m, ok := messages[code]; ok {
		return m
	}
	return messages[CodeServerError]
}

// Detail is the body of an error response.
type Detail struct {
	Code       Code   `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"`
	Errors     any    `json:"errors,omitempty"`
}

// Body wraps Detail under the "detail" key.
type Body struct {
	Detail Detail `json:"detail"`
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Write sends an error envelope. errs may be nil.
func Write(w http.ResponseWriter, status int, code Code, errs any) {
	WriteJSON(w, status, Body{Detail: Detail{
		Code:       code,
		Message:    Message(code),
		StatusCode: status,
		Errors:     errs,
	}})
}
