package handler

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/explore-with-me/internal/apperr"
	"github.com/Shivanand-hulikatti/explore-with-me/internal/jsontime"
	"github.com/Shivanand-hulikatti/explore-with-me/internal/model"
)

// values returns every value of name, accepting both repeated parameters and
// comma separated lists.
func values(q url.Values, name string) []string {
	var out []string
	for _, v := range q[name] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func int64List(q url.Values, name string) ([]int64, error) {
	raw := values(q, name)
	out := make([]int64, 0, len(raw))
	for _, v := range raw {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, apperr.Validation("%s must contain integers, got %q", name, v)
		}
		out = append(out, n)
	}
	return out, nil
}

func intParam(q url.Values, name string, def int) (int, error) {
	v := q.Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, apperr.Validation("%s must be an integer, got %q", name, v)
	}
	return n, nil
}

func boolParam(q url.Values, name string) (*bool, error) {
	v := q.Get(name)
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, apperr.Validation("%s must be true or false, got %q", name, v)
	}
	return &b, nil
}

func timeParam(q url.Values, name string) (*time.Time, error) {
	v := q.Get(name)
	if v == "" {
		return nil, nil
	}
	t, err := jsontime.Parse(v)
	if err != nil {
		return nil, apperr.Validation("%s must use format %q, got %q", name, jsontime.Layout, v)
	}
	return &t, nil
}

func pageParam(q url.Values) (model.Page, error) {
	from, err := intParam(q, "from", model.DefaultPage.From)
	if err != nil {
		return model.Page{}, err
	}
	size, err := intParam(q, "size", model.DefaultPage.Size)
	if err != nil {
		return model.Page{}, err
	}
	if from < 0 {
		return model.Page{}, apperr.Validation("from must not be negative")
	}
	if size <= 0 {
		return model.Page{}, apperr.Validation("size must be positive")
	}
	return model.Page{From: from, Size: size}, nil
}

func eventFilter(q url.Values) (model.EventFilter, error) {
	var (
		f   model.EventFilter
		err error
	)
	f.Text = strings.TrimSpace(q.Get("text"))
	if f.Categories, err = int64List(q, "categories"); err != nil {
		return f, err
	}
	if f.Paid, err = boolParam(q, "paid"); err != nil {
		return f, err
	}
	if f.RangeStart, err = timeParam(q, "rangeStart"); err != nil {
		return f, err
	}
	if f.RangeEnd, err = timeParam(q, "rangeEnd"); err != nil {
		return f, err
	}
	avail, err := boolParam(q, "onlyAvailable")
	if err != nil {
		return f, err
	}
	f.OnlyAvailable = avail != nil && *avail

	if s := q.Get("sort"); s != "" {
		f.Sort = model.EventSort(strings.ToUpper(s))
		if f.Sort != model.SortEventDate && f.Sort != model.SortViews {
			return f, apperr.Validation("sort must be %s or %s, got %q", model.SortEventDate, model.SortViews, s)
		}
	}
	f.Page, err = pageParam(q)
	return f, err
}

func adminEventFilter(q url.Values) (model.AdminEventFilter, error) {
	var (
		f   model.AdminEventFilter
		err error
	)
	if f.Users, err = int64List(q, "users"); err != nil {
		return f, err
	}
	for _, s := range values(q, "states") {
		state := model.EventState(strings.ToUpper(s))
		switch state {
		case model.EventPending, model.EventPublished, model.EventCanceled:
			f.States = append(f.States, state)
		default:
			return f, apperr.Validation("unknown event state %q", s)
		}
	}
	if f.Categories, err = int64List(q, "categories"); err != nil {
		return f, err
	}
	if f.RangeStart, err = timeParam(q, "rangeStart"); err != nil {
		return f, err
	}
	if f.RangeEnd, err = timeParam(q, "rangeEnd"); err != nil {
		return f, err
	}
	f.Page, err = pageParam(q)
	return f, err
}
