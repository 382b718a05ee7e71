// Package docs is generated by swag from the handler annotations. Regenerate with
// `swag init` after changing them.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "termsOfService": "http://swagger.io/terms/",
        "contact": {
            "name": "API Support",
            "url": "http://www.swagger.io/support",
            "email": "support@swagger.io"
        },
        "license": {
            "name": "Apache 2.0",
            "url": "http://www.apache.org/licenses/LICENSE-2.0.html"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["healthcheck"],
                "summary": "Health check",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/raffles": {
            "get": {
                "description": "Lists every raffle with its current round. Rounds past their deadline are drawn first.",
                "produces": ["application/json"],
                "tags": ["raffles"],
                "summary": "List raffles",
                "parameters": [
                    {"type": "string", "description": "Caller username", "name": "X-Username", "in": "header"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.RaffleSummary"}}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/response.Err"}}
                }
            }
        },
        "/raffles/{raffleID}": {
            "get": {
                "description": "Returns the current round, the caller's tickets and odds, and the last drawn round.",
                "produces": ["application/json"],
                "tags": ["raffles"],
                "summary": "Get raffle state",
                "parameters": [
                    {"type": "string", "description": "Raffle ID", "name": "raffleID", "in": "path", "required": true},
                    {"type": "string", "description": "Caller username", "name": "X-Username", "in": "header"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.RaffleState"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.Err"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/response.Err"}}
                }
            }
        },
        "/raffles/{raffleID}/tickets": {
            "post": {
                "description": "Appends a purchase to the raffle's open round, or to round_id when given.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["raffles"],
                "summary": "Buy tickets",
                "parameters": [
                    {"type": "string", "description": "Raffle ID", "name": "raffleID", "in": "path", "required": true},
                    {"type": "string", "description": "Buyer username", "name": "X-Username", "in": "header", "required": true},
                    {"description": "request body", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/request.BuyTicketsRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.Purchase"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Err"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.Err"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/response.Err"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/response.Err"}}
                }
            }
        },
        "/raffles/{raffleID}/rounds": {
            "get": {
                "description": "Returns the latest rounds of a raffle, newest first, with their outcome.",
                "produces": ["application/json"],
                "tags": ["rounds"],
                "summary": "List rounds",
                "parameters": [
                    {"type": "string", "description": "Raffle ID", "name": "raffleID", "in": "path", "required": true},
                    {"type": "integer", "description": "Number of rounds (default 20)", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.RoundResult"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Err"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.Err"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/response.Err"}}
                }
            }
        },
        "/raffles/{raffleID}/feed": {
            "get": {
                "description": "Upgrades to a websocket. The first message is a snapshot of the raffle state, then one message per round opened or drawn.",
                "produces": ["application/json"],
                "tags": ["raffles"],
                "summary": "Subscribe to round events",
                "parameters": [
                    {"type": "string", "description": "Raffle ID", "name": "raffleID", "in": "path", "required": true},
                    {"type": "string", "description": "Caller username", "name": "username", "in": "query"}
                ],
                "responses": {
                    "101": {"description": "Switching Protocols", "schema": {"$ref": "#/definitions/domain.RoundEvent"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.Err"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/response.Err"}}
                }
            }
        },
        "/rounds/{roundID}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["rounds"],
                "summary": "Get round",
                "parameters": [
                    {"type": "integer", "description": "Round ID", "name": "roundID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.RoundResult"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Err"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.Err"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/response.Err"}}
                }
            }
        },
        "/tick": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Draws every round past its deadline and opens its successor. Raffles are advanced independently; per-raffle failures are listed in the report.",
                "produces": ["application/json"],
                "tags": ["tick"],
                "summary": "Advance all raffles",
                "parameters": [
                    {"type": "string", "description": "Trigger secret, if not sent as a bearer token", "name": "secret", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/service.TickReport"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.Err"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/response.Err"}}
                }
            }
        },
        "/admin/creator-stats": {
            "get": {
                "description": "Tickets and revenue per creator code, highest revenue first.",
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Creator code report",
                "parameters": [
                    {"type": "string", "description": "Admin PIN", "name": "X-Admin-Pin", "in": "header"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.CreatorStat"}}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.Err"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/response.Err"}}
                }
            }
        },
        "/admin/raffles": {
            "post": {
                "description": "Creates a raffle and opens its first round. The ID is generated when omitted.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Create a raffle",
                "parameters": [
                    {"type": "string", "description": "Admin PIN", "name": "X-Admin-Pin", "in": "header"},
                    {"description": "request body", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/request.RaffleRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.Raffle"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Err"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.Err"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/response.Err"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/response.Err"}}
                }
            }
        },
        "/admin/raffles/{raffleID}": {
            "put": {
                "description": "Edits a raffle. A new duration applies from the next round on.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Update a raffle",
                "parameters": [
                    {"type": "string", "description": "Raffle ID", "name": "raffleID", "in": "path", "required": true},
                    {"type": "string", "description": "Admin PIN", "name": "X-Admin-Pin", "in": "header"},
                    {"description": "request body", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/request.RaffleRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Raffle"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Err"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.Err"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.Err"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/response.Err"}}
                }
            },
            "delete": {
                "description": "Deletes a raffle with all its rounds and purchases.",
                "tags": ["admin"],
                "summary": "Delete a raffle",
                "parameters": [
                    {"type": "string", "description": "Raffle ID", "name": "raffleID", "in": "path", "required": true},
                    {"type": "string", "description": "Admin PIN", "name": "X-Admin-Pin", "in": "header"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.Err"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.Err"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/response.Err"}}
                }
            }
        }
    },
    "definitions": {
        "domain.CreatorStat": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "revenue": {"type": "number"},
                "tickets": {"type": "integer"}
            }
        },
        "domain.Purchase": {
            "type": "object",
            "properties": {
                "created_at": {"type": "string"},
                "creator_code": {"type": "string"},
                "id": {"type": "integer"},
                "qty": {"type": "integer"},
                "raffle_id": {"type": "string"},
                "round_id": {"type": "integer"},
                "username": {"type": "string"}
            }
        },
        "domain.Raffle": {
            "type": "object",
            "properties": {
                "created_at": {"type": "string"},
                "description": {"type": "string"},
                "duration": {"type": "integer"},
                "id": {"type": "string"},
                "image": {"type": "string"},
                "prize": {"type": "string"},
                "ticket_price": {"type": "number"},
                "title": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "domain.RaffleState": {
            "type": "object",
            "properties": {
                "current_round": {"$ref": "#/definitions/domain.Round"},
                "last_round": {"$ref": "#/definitions/domain.RoundResult"},
                "last_won": {"type": "boolean"},
                "my_tickets": {"type": "integer"},
                "odds": {"type": "number"},
                "raffle": {"$ref": "#/definitions/domain.Raffle"},
                "round_outcome": {"type": "string", "enum": ["open", "draw_in_progress"]},
                "total_tickets": {"type": "integer"}
            }
        },
        "domain.RaffleSummary": {
            "type": "object",
            "properties": {
                "current_round": {"$ref": "#/definitions/domain.Round"},
                "my_tickets": {"type": "integer"},
                "raffle": {"$ref": "#/definitions/domain.Raffle"},
                "round_outcome": {"type": "string", "enum": ["open", "draw_in_progress"]},
                "total_tickets": {"type": "integer"}
            }
        },
        "domain.Round": {
            "type": "object",
            "properties": {
                "created_at": {"type": "string"},
                "deadline": {"type": "string"},
                "id": {"type": "integer"},
                "raffle_id": {"type": "string"},
                "resolved_at": {"type": "string"},
                "status": {"type": "string", "enum": ["OPEN", "RESOLVED"]},
                "total_at_draw": {"type": "integer"},
                "winning_ticket": {"type": "integer"}
            }
        },
        "domain.RoundEvent": {
            "type": "object",
            "properties": {
                "raffle_id": {"type": "string"},
                "round": {"$ref": "#/definitions/domain.Round"},
                "timestamp": {"type": "string"},
                "type": {"type": "string", "enum": ["round_opened", "round_resolved"]},
                "winner": {"type": "string"}
            }
        },
        "domain.RoundResult": {
            "type": "object",
            "properties": {
                "outcome": {"type": "string", "enum": ["open", "draw_in_progress", "won", "no_winner", "unresolved_winner"]},
                "round": {"$ref": "#/definitions/domain.Round"},
                "winner": {"type": "string"}
            }
        },
        "request.BuyTicketsRequest": {
            "type": "object",
            "properties": {
                "creator_code": {"type": "string", "example": "STREAMER_1"},
                "qty": {"type": "integer", "example": 3},
                "round_id": {"type": "integer"}
            }
        },
        "request.RaffleRequest": {
            "type": "object",
            "properties": {
                "description": {"type": "string"},
                "duration_ms": {"type": "integer", "example": 600000},
                "id": {"type": "string", "example": "weekly-bike"},
                "image": {"type": "string"},
                "prize": {"type": "string", "example": "City bike"},
                "ticket_price": {"type": "number", "example": 2.5},
                "title": {"type": "string", "example": "Weekly bike raffle"}
            }
        },
        "response.Err": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "status": {"type": "string"}
            }
        },
        "service.RaffleTick": {
            "type": "object",
            "properties": {
                "current_round": {"$ref": "#/definitions/domain.Round"},
                "error": {"type": "string"},
                "raffle_id": {"type": "string"},
                "resolved_round": {"$ref": "#/definitions/domain.Round"}
            }
        },
        "service.TickReport": {
            "type": "object",
            "properties": {
                "failed": {"type": "integer"},
                "processed": {"type": "integer"},
                "raffles": {"type": "array", "items": {"$ref": "#/definitions/service.RaffleTick"}},
                "resolved": {"type": "integer"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Tick trigger secret",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "",
	Host:             "",
	BasePath:         "",
	Schemes:          []string{},
	Title:            "",
	Description:      "",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
