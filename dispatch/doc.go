/*
Package dispatch picks the one format handler an action runs for a request.

An action builds a Registry describing every format it can answer with, and the
client's AcceptSet says which formats it wants, most preferred first. Dispatch walks
the AcceptSet in order and runs the handler of the first mimetype the Registry knows.

	formats := dispatch.NewRegistry()
	formats.HTML(func() (interface{}, error) { return renderArticle(article), nil })
	formats.JSON(func() (interface{}, error) { return article, nil })

	result, err := dispatch.Dispatch(acceptSet, formats)

Only the client's order decides the winner. Registering the same mimetype twice keeps
the later handler. When nothing matches, Dispatch returns a Result with
OutcomeUnsupported rather than an error, so the caller can answer 406 Not Acceptable.
An empty AcceptSet is a malformed request and fails with MalformedRequestError before
any handler runs.
*/
package dispatch
