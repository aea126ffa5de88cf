package models

// NoContextAnswer is returned when retrieval produced no chunks at all.
const NoContextAnswer = "No relevant information found in document."

// RefusalAnswer is the exact string the model is instructed to emit
// verbatim when the context does not answer the question.
const RefusalAnswer = "I don't know — the document does not contain this information."

// AnswerMarker ends the prompt; everything the model produces after the
// last occurrence of this marker is the answer.
const AnswerMarker = "FINAL ANSWER:"

// AnswerPromptTemplate takes the (possibly truncated) context and the
// question, in that order.
const AnswerPromptTemplate = `You are a helpful AI assistant. Your job is to answer the user's question
using ONLY the information provided in the CONTEXT below.

STRICT RULES:
1. If the answer is not clearly stated in the context, reply exactly:
"` + RefusalAnswer + `"
2. Do NOT add extra facts, assumptions, or hallucinations.
3. Keep the answer short, clear, and factual.

CONTEXT:
"""%s"""

QUESTION:
%s

` + AnswerMarker + `
`
