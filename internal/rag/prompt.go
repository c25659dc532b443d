package rag

import (
	"fmt"
	"strings"
)

// The prompt keeps the production wording: instructions, context and question
// in a single user message, in Portuguese.
const promptTemplate = `Você é um assistente especialista em análise de dados de Notas Fiscais e documentos.
Use estritamente o contexto fornecido para responder à pergunta do usuário de forma clara e objetiva.
Se a informação não estiver no contexto, responda: 'Não encontrei informações sobre isso nos documentos fornecidos.'

Contexto:
%s

Pergunta: %s

Resposta:`

const (
	// noResultsContext stands in when retrieval finds nothing relevant.
	noResultsContext = "Nenhum documento específico encontrado."
	// noCorpusContext stands in when no documents were loaded at all.
	noCorpusContext = "Nenhum documento foi carregado no sistema."
)

// buildPrompt assembles the chat message for one question. Chunk texts are
// joined by blank lines in retrieval order; an empty result set is replaced
// by a placeholder so the model still answers in the expected register.
func buildPrompt(question string, texts []string, corpusEmpty bool) string {
	contextText := noResultsContext
	switch {
	case len(texts) > 0:
		contextText = strings.Join(texts, "\n\n")
	case corpusEmpty:
		contextText = noCorpusContext
	}
	return fmt.Sprintf(promptTemplate, contextText, question)
}
