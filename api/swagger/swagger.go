package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Consultation Booking API",
        "description": "Availability, slot search and booking lifecycle for consultation sessions",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Availability", "description": "Availability rules and derived bookable slots"},
        {"name": "Slots", "description": "Preference-ranked slot search"},
        {"name": "Bookings", "description": "Booking lifecycle"},
        {"name": "Exports", "description": "Schedule downloads"}
    ],
    "paths": {
        "/consultants/{consultantId}/availability": {
            "get": {
                "tags": ["Availability"],
                "summary": "List a consultant's bookable slots",
                "parameters": [
                    {"name": "consultantId", "in": "path", "required": true, "type": "string"},
                    {"name": "from", "in": "query", "required": true, "type": "string"},
                    {"name": "to", "in": "query", "required": true, "type": "string"},
                    {"name": "includeBooked", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/consultants/{consultantId}/availability-rules": {
            "get": {
                "tags": ["Availability"],
                "summary": "List availability rules",
                "parameters": [
                    {"name": "consultantId", "in": "path", "required": true, "type": "string"},
                    {"name": "from", "in": "query", "type": "string"},
                    {"name": "to", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Availability"],
                "summary": "Declare an availability rule",
                "parameters": [
                    {"name": "consultantId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateRuleRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/availability-rules/{ruleId}": {
            "patch": {
                "tags": ["Availability"],
                "summary": "Update an availability rule",
                "parameters": [
                    {"name": "ruleId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RuleUpdate"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Availability"],
                "summary": "Remove an availability rule",
                "parameters": [
                    {"name": "ruleId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/slots/search": {
            "get": {
                "tags": ["Slots"],
                "summary": "Search available slots ranked by preference fit",
                "parameters": [
                    {"name": "from", "in": "query", "required": true, "type": "string"},
                    {"name": "to", "in": "query", "required": true, "type": "string"},
                    {"name": "preferredConsultants", "in": "query", "type": "string"},
                    {"name": "preferredTimes", "in": "query", "type": "string"},
                    {"name": "avoidTimes", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/bookings": {
            "post": {
                "tags": ["Bookings"],
                "summary": "Book a consultation slot",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BookingRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflicts detected", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/bookings/{id}": {
            "get": {
                "tags": ["Bookings"],
                "summary": "Fetch a booking",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/bookings/{id}/reschedule": {
            "patch": {
                "tags": ["Bookings"],
                "summary": "Move a booking to a new window",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RescheduleRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflicts detected", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/bookings/{id}/cancel": {
            "patch": {
                "tags": ["Bookings"],
                "summary": "Cancel a booking",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/CancelRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/students/{studentId}/bookings": {
            "get": {
                "tags": ["Bookings"],
                "summary": "List a student's bookings",
                "parameters": [
                    {"name": "studentId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/consultants/{consultantId}/schedule/export": {
            "get": {
                "tags": ["Exports"],
                "summary": "Export a consultant's schedule",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "consultantId", "in": "path", "required": true, "type": "string"},
                    {"name": "from", "in": "query", "required": true, "type": "string"},
                    {"name": "to", "in": "query", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "Rendered document"}
                }
            }
        }
    },
    "definitions": {
        "CreateRuleRequest": {
            "type": "object",
            "required": ["kind", "start_time", "end_time"],
            "properties": {
                "kind": {"type": "string", "enum": ["RECURRING_WEEKLY", "ONE_TIME", "BLOCKED_TIME", "HOLIDAY_BLOCK"]},
                "day_of_week": {"type": "integer", "minimum": 0, "maximum": 6},
                "specific_date": {"type": "string", "format": "date-time"},
                "start_time": {"type": "string", "example": "09:00"},
                "end_time": {"type": "string", "example": "17:00"},
                "max_sessions": {"type": "integer"},
                "buffer_minutes": {"type": "integer"},
                "booking_window_days": {"type": "integer"},
                "minimum_notice_hours": {"type": "integer"},
                "is_available": {"type": "boolean"},
                "timezone": {"type": "string", "example": "UTC"}
            }
        },
        "RuleUpdate": {
            "type": "object",
            "properties": {
                "day_of_week": {"type": "integer"},
                "specific_date": {"type": "string", "format": "date-time"},
                "start_time": {"type": "string"},
                "end_time": {"type": "string"},
                "max_sessions": {"type": "integer"},
                "buffer_minutes": {"type": "integer"},
                "booking_window_days": {"type": "integer"},
                "minimum_notice_hours": {"type": "integer"},
                "is_available": {"type": "boolean"},
                "timezone": {"type": "string"}
            }
        },
        "BookingRequest": {
            "type": "object",
            "required": ["consultant_id", "start", "end"],
            "properties": {
                "consultant_id": {"type": "string"},
                "student_id": {"type": "string"},
                "start": {"type": "string", "format": "date-time"},
                "end": {"type": "string", "format": "date-time"}
            }
        },
        "RescheduleRequest": {
            "type": "object",
            "required": ["start", "end"],
            "properties": {
                "start": {"type": "string", "format": "date-time"},
                "end": {"type": "string", "format": "date-time"},
                "reason": {"type": "string"}
            }
        },
        "CancelRequest": {
            "type": "object",
            "properties": {
                "reason": {"type": "string"}
            }
        },
        "Conflict": {
            "type": "object",
            "properties": {
                "type": {"type": "string", "enum": ["DOUBLE_BOOKING", "MINIMUM_NOTICE", "MAX_SESSIONS"]},
                "message": {"type": "string"},
                "alternatives": {"type": "array", "items": {"type": "object"}}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "conflicts": {"type": "array", "items": {"$ref": "#/definitions/Conflict"}},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
