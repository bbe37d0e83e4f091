package constants

// QueryResponseJSONSchema is the query artifact as a JSON schema, for providers
// that take the schema as raw JSON.
const QueryResponseJSONSchema = `{
    "type": "object",
    "required": [
      "sql",
      "explanation"
    ],
    "properties": {
      "sql": {
        "type": ["string", "null"],
        "description": "A single PostgreSQL SELECT statement, or null when the message is not a data question."
      },
      "explanation": {
        "type": "string",
        "description": "Short explanation of what the query does, or the conversational answer when sql is null."
      }
    },
    "additionalProperties": false
}`
