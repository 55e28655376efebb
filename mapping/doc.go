// Package mapping parses the official and intermediate symbol tables and
// composes them into a public-name to stable-name lookup table.
//
// The official table is ProGuard text mapping public names to obfuscated
// names. The intermediate table is TSRG (v1 or v2) mapping the same
// obfuscated names to stable names, read from a fixed entry of the
// intermediate archive. [Compose] joins the two through the obfuscated
// name space:
//
//	official:     com.example.Foo -> a        doThing()V -> m
//	intermediate: a -> ...                    m()V -> m_12345_
//	composed:     com.example.Foo.doThing -> [m_12345_]
//
// A [Table] is immutable once built and safe for concurrent reads.
package mapping
