package researcher

// Name identifies the researcher in logs, errors and metrics.
const Name = "Researcher"

// DefaultInstruction frames the researcher's role when no override is configured.
const DefaultInstruction = `You are an agent.

You will receive a question that may be quite short or may not carry much context.
Your job is to research the question and return a high-quality summary to the user, assisted by the provided context.
The provided context is JSON and contains the initial Google search results for the website or query.

Be concise.

Question:
`
