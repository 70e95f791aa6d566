package provider

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const featuredGamesSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["gameList"],
  "properties": {
    "gameList": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["participants"],
        "properties": {
          "participants": {
            "type": "array",
            "minItems": 1,
            "items": {
              "type": "object",
              "required": ["summonerName"],
              "properties": {"summonerName": {"type": "string", "minLength": 1}}
            }
          }
        }
      }
    }
  }
}`

const liveGamesSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["data"],
  "properties": {
    "data": {
      "type": "object",
      "required": ["lol"],
      "properties": {
        "lol": {
          "type": "object",
          "required": ["liveGames"],
          "properties": {
            "liveGames": {
              "type": "object",
              "required": ["games"],
              "properties": {
                "games": {
                  "type": "array",
                  "items": {
                    "type": "object",
                    "required": ["participants"],
                    "properties": {
                      "participants": {
                        "type": "array",
                        "minItems": 1,
                        "items": {
                          "type": "object",
                          "required": ["summoner"],
                          "properties": {
                            "summoner": {
                              "type": "object",
                              "required": ["name", "region"],
                              "properties": {
                                "name": {"type": "string", "minLength": 1},
                                "region": {"type": "string", "minLength": 1}
                              }
                            }
                          }
                        }
                      }
                    }
                  }
                }
              }
            }
          }
        }
      }
    }
  }
}`

var (
	featuredGames = jsonschema.MustCompileString("featured-games.json", featuredGamesSchema)
	liveGames     = jsonschema.MustCompileString("live-games.json", liveGamesSchema)
)

// validatePayload checks body against schema and wraps every violation in ErrMalformedPayload.
func validatePayload(schema *jsonschema.Schema, body []byte) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("%w: invalid JSON: %v", ErrMalformedPayload, err)
	}

	if err := schema.Validate(doc); err != nil {
		if verr, ok := err.(*jsonschema.ValidationError); ok {
			return fmt.Errorf("%w: %s", ErrMalformedPayload, strings.Join(violations(verr), "; "))
		}
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return nil
}

// violations flattens a validation error tree into its leaf messages.
func violations(err *jsonschema.ValidationError) []string {
	if len(err.Causes) == 0 {
		return []string{fmt.Sprintf("%s: %s", err.InstanceLocation, err.Message)}
	}

	var out []string
	for _, cause := range err.Causes {
		out = append(out, violations(cause)...)
	}
	return out
}
