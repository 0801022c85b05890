// Package catalogchat embeds the catalog chat assistant core in a Go program:
// catalog indexing, cosine retrieval with a result cache, conversation memory
// and the chat turn orchestrator.
//
// The embedding provider and the LLM are supplied by the caller:
//
//	client, _ := catalogchat.New(ctx,
//	    catalogchat.WithCatalogFile("data/catalogo.json"),
//	    catalogchat.WithIndexFile("data/catalog-index.json"),
//	    catalogchat.WithEmbedder(myEmbedder),
//	    catalogchat.WithCompleter(myLLM),
//	)
//	defer client.Close()
//
//	facts, _ := client.Search(ctx, "zapatos rojos", 3)
//	reply, _ := client.Chat(ctx, catalogchat.ChatRequest{Message: "¿Tienen zapatos?"})
//
// With WithRedis (or WithValkey) the index snapshot and, when WithDurableMemory
// is set, the conversation history are kept in the store.
package catalogchat
