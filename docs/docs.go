// Package docs holds the hand-maintained OpenAPI document served under
// /swagger. Keep it in step with the handler annotations.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/auth/check": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Check authentication status",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.authCheckResponse"}}
                }
            }
        },
        "/api/courses": {
            "get": {
                "produces": ["application/json"],
                "tags": ["courses"],
                "summary": "List active courses",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Course"}}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/api/courses/{courseId}/enroll": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["courses"],
                "summary": "Enroll in a course",
                "parameters": [
                    {"type": "string", "description": "Course id", "name": "courseId", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.enrollResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/api/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Login",
                "parameters": [
                    {"description": "Login credentials", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.loginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.authResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/api/logout": {
            "post": {
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Logout",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.messageResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/api/profile": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["profile"],
                "summary": "Get the current user's profile",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.User"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["profile"],
                "summary": "Update the current user's profile",
                "parameters": [
                    {"description": "Fields to change", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.updateProfileRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.updateProfileResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/api/register": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Register a new user",
                "parameters": [
                    {"description": "User registration details", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.registerRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.authResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/api/seed-courses": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["courses"],
                "summary": "Seed the course catalog",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.seedResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "domain.Course": {
            "type": "object",
            "properties": {
                "_id": {"type": "string"},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "instructor": {"type": "string"},
                "duration": {"type": "string"},
                "level": {"type": "string", "enum": ["Beginner", "Intermediate", "Advanced"]},
                "price": {"type": "number"},
                "category": {"type": "string"},
                "image": {"type": "string"},
                "rating": {"type": "number"},
                "isActive": {"type": "boolean"},
                "createdAt": {"type": "string"},
                "updatedAt": {"type": "string"},
                "enrolledStudents": {"type": "array", "items": {"$ref": "#/definitions/domain.EnrolledStudent"}},
                "reviews": {"type": "array", "items": {"$ref": "#/definitions/domain.Review"}}
            }
        },
        "domain.EnrolledCourse": {
            "type": "object",
            "properties": {
                "courseId": {"type": "string"},
                "courseName": {"type": "string"},
                "enrolledAt": {"type": "string"}
            }
        },
        "domain.EnrolledStudent": {
            "type": "object",
            "properties": {
                "userId": {"type": "string"},
                "enrolledAt": {"type": "string"}
            }
        },
        "domain.Profile": {
            "type": "object",
            "properties": {
                "bio": {"type": "string"},
                "phone": {"type": "string"},
                "address": {"type": "string"},
                "dateOfBirth": {"type": "string"}
            }
        },
        "domain.Review": {
            "type": "object",
            "properties": {
                "userId": {"type": "string"},
                "rating": {"type": "number"},
                "comment": {"type": "string"},
                "createdAt": {"type": "string"}
            }
        },
        "domain.User": {
            "type": "object",
            "properties": {
                "_id": {"type": "string"},
                "username": {"type": "string"},
                "email": {"type": "string"},
                "firstName": {"type": "string"},
                "lastName": {"type": "string"},
                "role": {"type": "string", "enum": ["student", "instructor", "admin"]},
                "enrolledCourses": {"type": "array", "items": {"$ref": "#/definitions/domain.EnrolledCourse"}},
                "profile": {"$ref": "#/definitions/domain.Profile"},
                "isActive": {"type": "boolean"},
                "lastLogin": {"type": "string"},
                "createdAt": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        },
        "handler.authCheckResponse": {
            "type": "object",
            "properties": {
                "authenticated": {"type": "boolean"},
                "user": {"$ref": "#/definitions/handler.claimsUser"}
            }
        },
        "handler.authResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "token": {"type": "string"},
                "user": {"$ref": "#/definitions/handler.userSummary"}
            }
        },
        "handler.claimsUser": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "username": {"type": "string"},
                "role": {"type": "string"}
            }
        },
        "handler.enrollResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "enrollment": {"$ref": "#/definitions/handler.enrollmentView"}
            }
        },
        "handler.enrollmentView": {
            "type": "object",
            "properties": {
                "courseId": {"type": "string"},
                "courseName": {"type": "string"},
                "enrolledAt": {"type": "string"}
            }
        },
        "handler.errorResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"}
            }
        },
        "handler.loginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "handler.messageResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"}
            }
        },
        "handler.profileUser": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "username": {"type": "string"},
                "email": {"type": "string"},
                "firstName": {"type": "string"},
                "lastName": {"type": "string"},
                "profile": {"$ref": "#/definitions/domain.Profile"}
            }
        },
        "handler.registerRequest": {
            "type": "object",
            "properties": {
                "username": {"type": "string"},
                "email": {"type": "string"},
                "password": {"type": "string"},
                "firstName": {"type": "string"},
                "lastName": {"type": "string"}
            }
        },
        "handler.seedResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "count": {"type": "integer"}
            }
        },
        "handler.updateProfileRequest": {
            "type": "object",
            "properties": {
                "firstName": {"type": "string", "maxLength": 50},
                "lastName": {"type": "string", "maxLength": 50},
                "bio": {"type": "string", "maxLength": 500},
                "phone": {"type": "string", "maxLength": 30},
                "address": {"type": "string", "maxLength": 200},
                "dateOfBirth": {"type": "string"}
            }
        },
        "handler.updateProfileResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "user": {"$ref": "#/definitions/handler.profileUser"}
            }
        },
        "handler.userSummary": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "username": {"type": "string"},
                "email": {"type": "string"},
                "firstName": {"type": "string"},
                "lastName": {"type": "string"},
                "role": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "CourseHub API",
	Description:      "Accounts, sessions, course catalog and enrollment.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
