package study

// Store holds the study tasks in insertion order. It is not safe for
// concurrent use; the controller serializes access on its run loop.
type Store struct {
	tasks []*Task
}

// NewStore returns a store seeded with the given tasks. Seeds that fail
// validation are reported as an error and nothing is added.
func NewStore(seed []TaskInput) (*Store, error) {
	s := &Store{}
	for _, in := range seed {
		if _, err := s.Add(in); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) nextID() int {
	id := 0
	for _, t := range s.tasks {
		if t.ID > id {
			id = t.ID
		}
	}
	return id + 1
}

func (s *Store) find(id int) (int, *Task) {
	for i, t := range s.tasks {
		if t.ID == id {
			return i, t
		}
	}
	return -1, nil
}

// Add appends a new pending task and returns it.
func (s *Store) Add(in TaskInput) (Task, error) {
	in, err := in.normalize("add task")
	if err != nil {
		return Task{}, err
	}
	t := &Task{
		ID:              s.nextID(),
		Name:            in.Name,
		Subject:         in.Subject,
		Difficulty:      in.Difficulty,
		DurationMinutes: in.DurationMinutes,
		Tip:             in.Tip,
		Status:          StatusPending,
	}
	s.tasks = append(s.tasks, t)
	return *t, nil
}

// Edit overwrites the editable fields of task id. ID and status are kept.
func (s *Store) Edit(id int, in TaskInput) (Task, error) {
	_, t := s.find(id)
	if t == nil {
		return Task{}, notFound("edit task", id)
	}
	in, err := in.normalize("edit task")
	if err != nil {
		return Task{}, err
	}
	t.Name = in.Name
	t.Subject = in.Subject
	t.Difficulty = in.Difficulty
	t.DurationMinutes = in.DurationMinutes
	t.Tip = in.Tip
	return *t, nil
}

// Delete removes task id. The caller must make sure no session references it.
func (s *Store) Delete(id int) error {
	i, t := s.find(id)
	if t == nil {
		return notFound("delete task", id)
	}
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	return nil
}

// ResetAll puts every task back to pending.
func (s *Store) ResetAll() {
	for _, t := range s.tasks {
		t.Status = StatusPending
	}
}

// Get returns a copy of task id.
func (s *Store) Get(id int) (Task, bool) {
	_, t := s.find(id)
	if t == nil {
		return Task{}, false
	}
	return *t, true
}

// List returns a copy of all tasks in insertion order.
func (s *Store) List() []Task {
	out := make([]Task, len(s.tasks))
	for i, t := range s.tasks {
		out[i] = *t
	}
	return out
}

// setStatus is used by the engine. Marking a task active fails if another
// task already is, which keeps the single-active invariant local to the store.
func (s *Store) setStatus(id int, status Status) error {
	_, t := s.find(id)
	if t == nil {
		return notFound("set status", id)
	}
	if status == StatusActive {
		for _, o := range s.tasks {
			if o.ID != id && o.Status == StatusActive {
				return invalidStatef("set status", "task %d is already active", o.ID)
			}
		}
	}
	t.Status = status
	return nil
}
