// Package checkin holds the Swagger document for the attendance API.
// Regenerate with: swag init -g internal/checkin/http/router.go -o api/checkin
package checkin

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "AussieBroadWAN Team",
            "url": "https://github.com/aussiebroadwan/checkin"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Session"],
                "summary": "Log in with the rotating key",
                "parameters": [
                    {"description": "Student and key", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/checkinsdk.LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Logged in", "schema": {"$ref": "#/definitions/checkinsdk.LoginResponse"}},
                    "400": {"description": "Missing or malformed fields", "schema": {"$ref": "#/definitions/checkinsdk.MessageResponse"}},
                    "403": {"description": "Key invalid or expired", "schema": {"$ref": "#/definitions/checkinsdk.MessageResponse"}},
                    "409": {"description": "Device or student already bound elsewhere", "schema": {"$ref": "#/definitions/checkinsdk.MessageResponse"}},
                    "429": {"description": "Too many attempts", "schema": {"$ref": "#/definitions/checkinsdk.MessageResponse"}},
                    "503": {"description": "Storage unavailable", "schema": {"$ref": "#/definitions/checkinsdk.MessageResponse"}}
                }
            }
        },
        "/api/logout": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Session"],
                "summary": "Log out and release the device",
                "parameters": [
                    {"description": "Student and key", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/checkinsdk.LogoutRequest"}}
                ],
                "responses": {
                    "200": {"description": "Logged out", "schema": {"$ref": "#/definitions/checkinsdk.MessageResponse"}},
                    "403": {"description": "Key invalid or not the bound device", "schema": {"$ref": "#/definitions/checkinsdk.MessageResponse"}},
                    "404": {"description": "No binding", "schema": {"$ref": "#/definitions/checkinsdk.MessageResponse"}}
                }
            }
        },
        "/api/checkin": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Attendance"],
                "summary": "Check in",
                "parameters": [
                    {"description": "Student", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/checkinsdk.AttendanceRequest"}}
                ],
                "responses": {
                    "200": {"description": "Checked in", "schema": {"$ref": "#/definitions/checkinsdk.CheckInResponse"}},
                    "403": {"description": "Not logged in from the bound device", "schema": {"$ref": "#/definitions/checkinsdk.MessageResponse"}}
                }
            }
        },
        "/api/checkout": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Attendance"],
                "summary": "Check out",
                "parameters": [
                    {"description": "Student", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/checkinsdk.AttendanceRequest"}}
                ],
                "responses": {
                    "200": {"description": "Checked out", "schema": {"$ref": "#/definitions/checkinsdk.CheckOutResponse"}},
                    "403": {"description": "Not logged in from the bound device", "schema": {"$ref": "#/definitions/checkinsdk.MessageResponse"}},
                    "404": {"description": "No check-in record", "schema": {"$ref": "#/definitions/checkinsdk.MessageResponse"}}
                }
            }
        },
        "/api/status/{studentId}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Attendance"],
                "summary": "Attendance status",
                "parameters": [
                    {"type": "string", "description": "Student", "name": "studentId", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Status", "schema": {"$ref": "#/definitions/checkinsdk.StatusResponse"}}
                }
            }
        },
        "/api/history": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Attendance"],
                "summary": "Attendance history",
                "responses": {
                    "200": {"description": "Records", "schema": {"$ref": "#/definitions/checkinsdk.HistoryResponse"}}
                }
            }
        },
        "/api/reports/weekly": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Reports"],
                "summary": "Weekly totals",
                "parameters": [
                    {"type": "string", "description": "First day, YYYY-MM-DD", "name": "start", "in": "query"},
                    {"type": "string", "description": "Last day, YYYY-MM-DD", "name": "end", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Totals", "schema": {"$ref": "#/definitions/checkinsdk.WeeklyReportResponse"}},
                    "400": {"description": "Invalid dates", "schema": {"$ref": "#/definitions/checkinsdk.MessageResponse"}}
                }
            }
        },
        "/livez": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Health Check Endpoint",
                "responses": {
                    "200": {"description": "status, uptime, version", "schema": {"$ref": "#/definitions/checkinsdk.HealthResponse"}}
                }
            }
        },
        "/readyz": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Readiness Check Endpoint",
                "responses": {
                    "200": {"description": "status, uptime, version, checks", "schema": {"$ref": "#/definitions/checkinsdk.HealthResponse"}},
                    "503": {"description": "service not ready", "schema": {"$ref": "#/definitions/checkinsdk.HealthResponse"}}
                }
            }
        }
    },
    "definitions": {
        "checkinsdk.LoginRequest": {
            "type": "object",
            "properties": {
                "studentId": {"type": "string", "example": "S1"},
                "inputKey": {"type": "string", "example": "0007"}
            }
        },
        "checkinsdk.LoginResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "msg": {"type": "string"},
                "studentId": {"type": "string"},
                "clientIp": {"type": "string"},
                "ongoingCheckin": {"type": "string"}
            }
        },
        "checkinsdk.LogoutRequest": {
            "type": "object",
            "properties": {
                "studentId": {"type": "string", "example": "S1"},
                "inputKey": {"type": "string", "example": "0007"}
            }
        },
        "checkinsdk.MessageResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "msg": {"type": "string"}
            }
        },
        "checkinsdk.AttendanceRequest": {
            "type": "object",
            "properties": {
                "id": {"type": "string", "example": "S1"}
            }
        },
        "checkinsdk.CheckInResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "checkInTime": {"type": "string"}
            }
        },
        "checkinsdk.CheckOutResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "checkInTime": {"type": "string"},
                "checkOutTime": {"type": "string"},
                "duration": {"type": "string", "example": "01:15:00"}
            }
        },
        "checkinsdk.StatusResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "ongoing": {"type": "boolean"},
                "checkInTime": {"type": "string"}
            }
        },
        "checkinsdk.Record": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "checkInTime": {"type": "string"},
                "checkOutTime": {"type": "string"},
                "duration": {"type": "string"},
                "createDate": {"type": "string", "example": "2026-03-04"}
            }
        },
        "checkinsdk.HistoryResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "records": {"type": "array", "items": {"$ref": "#/definitions/checkinsdk.Record"}}
            }
        },
        "checkinsdk.WeeklyTotal": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "total": {"type": "string", "example": "01:30:00"},
                "totalSeconds": {"type": "integer"}
            }
        },
        "checkinsdk.WeeklyReportResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "weekStart": {"type": "string", "example": "2026-03-02"},
                "weekEnd": {"type": "string", "example": "2026-03-08"},
                "totals": {"type": "array", "items": {"$ref": "#/definitions/checkinsdk.WeeklyTotal"}}
            }
        },
        "checkinsdk.HealthChecks": {
            "type": "object",
            "properties": {
                "database": {"type": "string"},
                "keys": {"type": "string"}
            }
        },
        "checkinsdk.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "ok"},
                "uptime": {"type": "string", "example": "1h2m3s"},
                "version": {"type": "string", "example": "0.1.0"},
                "checks": {"$ref": "#/definitions/checkinsdk.HealthChecks"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "0.1.0",
	Host:             "localhost:6300",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "Checkin Attendance API",
	Description:      "Device-bound attendance tracking. A student logs in with the 4-digit rotating key shown\non the key display, which binds the student to the calling device. Check-in and check-out\nare only accepted from the bound device.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
