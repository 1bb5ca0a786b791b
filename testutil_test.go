package scenic

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/rlch/scenic/driver"
)

// fakeElement is one element on the fake page.
type fakeElement struct {
	text  string
	attrs map[string]string
}

// fakeSession is an in-memory driver.Session backed by a mutable page.
type fakeSession struct {
	mu sync.Mutex

	page      map[string]*fakeElement // keyed by normalized locator
	navErr    error
	visited   []string
	refreshes int
	clicks    []string
	keys      []string
	submits   []string
	closed    bool
}

func newFakeSession() *fakeSession {
	return &fakeSession{page: make(map[string]*fakeElement)}
}

// setElement places an element on the fake page under an authored locator.
func (s *fakeSession) setElement(locator, text string, attrs map[string]string) {
	loc, err := driver.ParseLocator(locator)
	if err != nil {
		panic(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.page[loc.String()] = &fakeElement{text: text, attrs: attrs}
}

func (s *fakeSession) removeElement(locator string) {
	loc, _ := driver.ParseLocator(locator)

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.page, loc.String())
}

func (s *fakeSession) lookup(el driver.ElementRef) (*fakeElement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fe, ok := s.page[el.Locator.String()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", driver.ErrElementNotFound, el.Locator)
	}

	return fe, nil
}

func (s *fakeSession) Navigate(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.navErr != nil {
		return s.navErr
	}

	s.visited = append(s.visited, url)

	return nil
}

func (s *fakeSession) Refresh(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.refreshes++

	return nil
}

func (s *fakeSession) Find(_ context.Context, loc driver.Locator) (driver.ElementRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.page[loc.String()]; !ok {
		return driver.ElementRef{}, fmt.Errorf("%w: %s", driver.ErrElementNotFound, loc)
	}

	return driver.ElementRef{Locator: loc}, nil
}

func (s *fakeSession) Text(_ context.Context, el driver.ElementRef) (string, error) {
	fe, err := s.lookup(el)
	if err != nil {
		return "", err
	}

	return fe.text, nil
}

func (s *fakeSession) Attribute(_ context.Context, el driver.ElementRef, name string) (string, error) {
	fe, err := s.lookup(el)
	if err != nil {
		return "", err
	}

	return fe.attrs[name], nil
}

func (s *fakeSession) Click(_ context.Context, el driver.ElementRef) error {
	if _, err := s.lookup(el); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.clicks = append(s.clicks, el.Locator.String())

	return nil
}

func (s *fakeSession) SendKeys(_ context.Context, el driver.ElementRef, text string) error {
	fe, err := s.lookup(el)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if fe.attrs == nil {
		fe.attrs = make(map[string]string)
	}

	fe.attrs["value"] += text
	s.keys = append(s.keys, el.Locator.String()+"="+text)

	return nil
}

func (s *fakeSession) Submit(_ context.Context, el driver.ElementRef) error {
	if _, err := s.lookup(el); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.submits = append(s.submits, el.Locator.String())

	return nil
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true

	return nil
}

// newTestWidget builds a widget and fails the test on construction errors.
func newTestWidget(t *testing.T, session driver.Session, name string, desc Descriptor) *Widget {
	t.Helper()

	w, err := NewWidget(name, desc, session)
	if err != nil {
		t.Fatalf("NewWidget(%s): %v", name, err)
	}

	return w
}
