/*
Package corpus stores the source texts a trigram generator is built from.

Sources live in a SQLite database in the order they were added. The model
itself is never stored: Build replays every source into a fresh
trigram.Generator, so the same sources and seed always produce the same text.
*/
package corpus
