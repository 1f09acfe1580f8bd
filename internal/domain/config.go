package domain

// KeyPrefix namespaces every key semdex writes to the store.
const KeyPrefix = "semdex:"

// MaxEmbeddingTextChars caps the text handed to an embedding provider.
const MaxEmbeddingTextChars = 8000
