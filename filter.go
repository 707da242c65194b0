package gtfsfilter

type FilterOpts struct {
	// Extended also filters frequencies, fare_rules and route_networks instead of
	// copying them through.
	Extended bool
}

// Filter builds the subset of feed reachable from the routes c selects. The result
// is self-contained: every foreign key in it resolves to a row that is also in it.
//
// On error no feed is returned. The input feed is never modified.
func Filter(feed *Feed, c Criterion, opts *FilterOpts) (*Feed, *Report, error) {
	if opts == nil {
		opts = &FilterOpts{}
	}

	values, err := c.clean()
	if err != nil {
		return nil, nil, err
	}
	if err := requireTables(feed); err != nil {
		return nil, nil, err
	}

	sel, err := resolveSelection(feed, c.Kind, values)
	if err != nil {
		return nil, nil, err
	}

	out := NewFeed()
	out.AddTable(sel.routes)
	report := &Report{Criterion: sel.descriptor}

	if err := runCascade(feed, out, cascadeFor(opts.Extended), sel, report); err != nil {
		return nil, nil, err
	}
	copyPassthrough(feed, out, schemaFor(opts.Extended), report)

	return out, report, nil
}
