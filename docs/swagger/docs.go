// Package swagger holds the OpenAPI document served by the Swagger UI.
package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/curricula": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Curriculum"],
                "summary": "List study programmes",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/CurriculaResponse"}}
                }
            }
        },
        "/curriculum/{id}/semesters": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Curriculum"],
                "summary": "Semesters of a curriculum",
                "parameters": [
                    {"type": "integer", "description": "Study programme ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Tree"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponseBody"}}
                }
            }
        },
        "/curriculum/{id}/semester/{n}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Curriculum"],
                "summary": "One semester of a curriculum",
                "parameters": [
                    {"type": "integer", "description": "Study programme ID", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "description": "Semester number", "name": "n", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/SemesterNode"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponseBody"}}
                }
            }
        },
        "/curriculum/{id}/module/{code}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Curriculum"],
                "summary": "Module of a curriculum",
                "parameters": [
                    {"type": "integer", "description": "Study programme ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "Module code", "name": "code", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ModuleInfo"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponseBody"}}
                }
            }
        },
        "/module/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Module"],
                "summary": "Editable module",
                "parameters": [
                    {"type": "integer", "description": "Module ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Document"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponseBody"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "tags": ["Module"],
                "summary": "Edit module",
                "parameters": [
                    {"type": "integer", "description": "Module ID", "name": "id", "in": "path", "required": true},
                    {"description": "Complete module edit", "name": "edit", "in": "body", "required": true, "schema": {"$ref": "#/definitions/Document"}}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponseBody"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponseBody"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ErrorResponseBody"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/ErrorResponseBody"}}
                }
            }
        }
    },
    "definitions": {
        "ModuleInfo": {
            "allOf": [
                {"$ref": "#/definitions/Document"},
                {
                    "type": "object",
                    "properties": {
                        "id": {"type": "integer"},
                        "studyProgrammeId": {"type": "integer"},
                        "semester": {"type": "integer"}
                    }
                }
            ]
        },
        "ErrorResponseBody": {
            "type": "object",
            "properties": {
                "error": {
                    "type": "object",
                    "properties": {
                        "code": {"type": "string"},
                        "message": {"type": "string"}
                    }
                }
            }
        },
        "StudyProgramme": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "code": {"type": "string"},
                "name": {"type": "string"}
            }
        },
        "CurriculaResponse": {
            "type": "object",
            "properties": {
                "curricula": {"type": "array", "items": {"$ref": "#/definitions/StudyProgramme"}}
            }
        },
        "SemesterNode": {
            "type": "object",
            "properties": {
                "semester": {"type": "integer"},
                "modules": {"type": "array", "items": {"type": "object", "additionalProperties": true}}
            }
        },
        "Tree": {
            "type": "object",
            "properties": {
                "semesters": {"type": "array", "items": {"$ref": "#/definitions/SemesterNode"}}
            }
        },
        "Document": {
            "type": "object",
            "required": ["code", "name", "credits"],
            "properties": {
                "code": {"type": "string"},
                "name": {"type": "string"},
                "credits": {"type": "integer"},
                "lecturerId": {"type": "integer"},
                "durationWeeks": {"type": "integer"},
                "elective": {"type": "boolean"},
                "descriptions": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "introduction": {"type": "string"},
                            "content": {"type": "string"},
                            "additionalInfo": {"type": "string"}
                        }
                    }
                },
                "topics": {"type": "array", "items": {"type": "string"}},
                "literatureReferences": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "type": {"type": "string"},
                            "description": {"type": "string"}
                        }
                    }
                },
                "prerequisiteModuleIds": {"type": "array", "items": {"type": "integer"}},
                "assessmentComponents": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "code": {"type": "string"},
                            "description": {"type": "string"},
                            "weight": {"type": "number"},
                            "minimumGrade": {"type": "number"},
                            "remarks": {"type": "string"}
                        }
                    }
                },
                "learningGoals": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "text": {"type": "string"},
                            "weight": {"type": "number"},
                            "mandatory": {"type": "boolean"}
                        }
                    }
                },
                "constituentPartMappings": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "learningGoal": {"type": "integer"},
                            "assessmentComponent": {"type": "string"}
                        }
                    }
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/fmms",
	Schemes:          []string{},
	Title:            "Faculty Module Management Service",
	Description:      "Curriculum overviews and transactional module edits.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
