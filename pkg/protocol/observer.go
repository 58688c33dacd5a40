// ABOUTME: Observer registration for connection events
// ABOUTME: Callers subscribe to session, presence, audio, error and close notifications
package protocol

// Observer receives connection events. Callbacks run on the client's
// reader goroutine, in transport delivery order, and must not block.
type Observer interface {
	OnSession(SessionInfo)
	OnConnect(Presence)
	OnPresence(Presence)
	OnAudio(AudioFrame)
	OnRotation(RotationUpdate)
	OnError(error)
	// OnClose fires exactly once per client. err is nil when Close was called locally.
	OnClose(err error)
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are ignored.
type ObserverFuncs struct {
	Session  func(SessionInfo)
	Connect  func(Presence)
	Presence func(Presence)
	Audio    func(AudioFrame)
	Rotation func(RotationUpdate)
	Error    func(error)
	Close    func(error)
}

func (f ObserverFuncs) OnSession(s SessionInfo) {
	if f.Session != nil {
		f.Session(s)
	}
}

func (f ObserverFuncs) OnConnect(p Presence) {
	if f.Connect != nil {
		f.Connect(p)
	}
}

func (f ObserverFuncs) OnPresence(p Presence) {
	if f.Presence != nil {
		f.Presence(p)
	}
}

func (f ObserverFuncs) OnAudio(a AudioFrame) {
	if f.Audio != nil {
		f.Audio(a)
	}
}

func (f ObserverFuncs) OnRotation(r RotationUpdate) {
	if f.Rotation != nil {
		f.Rotation(r)
	}
}

func (f ObserverFuncs) OnError(err error) {
	if f.Error != nil {
		f.Error(err)
	}
}

func (f ObserverFuncs) OnClose(err error) {
	if f.Close != nil {
		f.Close(err)
	}
}

// Observe registers o and returns a function that unregisters it
func (c *Client) Observe(o Observer) func() {
	c.obsMu.Lock()
	id := c.nextObserver
	c.nextObserver++
	c.observers[id] = o
	c.obsMu.Unlock()

	return func() {
		c.obsMu.Lock()
		delete(c.observers, id)
		c.obsMu.Unlock()
	}
}

// notify calls fn for every registered observer. It reports false when
// nobody is listening so the caller can log what would have been lost.
func (c *Client) notify(fn func(Observer)) bool {
	c.obsMu.RLock()
	list := make([]Observer, 0, len(c.observers))
	for id := 0; id < c.nextObserver; id++ {
		if o, ok := c.observers[id]; ok {
			list = append(list, o)
		}
	}
	c.obsMu.RUnlock()

	for _, o := range list {
		fn(o)
	}
	return len(list) > 0
}
