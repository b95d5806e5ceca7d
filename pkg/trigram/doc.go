/*
Package trigram provides an in-memory, trigram-based Markov text generator.

Text is split into word, number and punctuation tokens, every three-token
window records which token followed a pair of adjacent tokens, and the
finalized table is walked pair by pair to produce new text. Successor
selection cycles through the recorded observations of each pair in order,
so a seeded generator produces the same output on every run.

A Generator has two states. While building, AddSource may be called any
number of times. Finalize freezes the table and fixes the start pair; after
that only read operations are allowed, and Generate may be called
concurrently.
*/
package trigram
