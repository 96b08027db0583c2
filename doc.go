// Package aetherfy provides a Go client for the Aetherfy vectors service.
//
// Writes are validated on the client before they are sent. Vector lengths
// are checked against the collection dimensionality, and payloads against
// the collection's payload schema when it has one. Both schemas are cached
// per collection. Every upsert carries the schema version it was validated
// against; if the service reports it stale, the client refreshes the
// schemas, revalidates and resubmits once.
//
// # Points and schemas
//
//	client, _ := aetherfy.New(aetherfy.WithAPIKey("afy_live_..."))
//	_ = client.Collections().Create(ctx, "articles", aetherfy.VectorConfig{Size: 384, Distance: aetherfy.Cosine})
//	_, _ = client.Schemas("articles").Set(ctx, aetherfy.Schema{Fields: map[string]aetherfy.FieldDefinition{
//	    "title": {Type: aetherfy.FieldString, Required: true},
//	}}, aetherfy.EnforcementStrict)
//	err := client.Points("articles").Upsert(ctx, points)
//
//	var sve *aetherfy.SchemaValidationError
//	if errors.As(err, &sve) {
//	    // sve.Records lists every rejected point
//	}
//
// # Typed collections
//
//	type Article struct {
//	    ID    string    `aetherfy:",id"`
//	    Embed []float32 `aetherfy:",vector"`
//	    Title string    `aetherfy:"title,required"`
//	    Views int       `aetherfy:"views"`
//	}
//
//	articles, _ := aetherfy.NewTypedCollection[Article](client, "articles")
//	_, _ = articles.ApplySchema(ctx, aetherfy.EnforcementStrict)
//	_ = articles.Upsert(ctx, a1, a2)
//	hits, _ := articles.Search(ctx, query, 10, nil)
//
// # Text
//
// With an embedder configured, UpsertTexts and SearchText vectorize text
// on the client:
//
//	client, _ := aetherfy.New(aetherfy.WithOpenAIEmbedder(aetherfy.OpenAIConfig{
//	    APIKey: os.Getenv("OPENAI_API_KEY"),
//	    Model:  "text-embedding-3-small",
//	}))
//	_ = client.Points("articles").UpsertTexts(ctx, []aetherfy.TextPoint{{ID: "a", Text: "hello"}})
//
// # Health
//
// Client.Health pings the service and, when supported, the embedding
// provider. A failing provider reports "degraded".
package aetherfy
