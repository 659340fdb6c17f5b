package repl

// show loads history entry i into the input. With follow set, the entry's
// mode becomes active.
func (m model) show(i int, follow bool) model {
	e, err := m.history.At(i)
	if err != nil {
		return m
	}

	if follow {
		m = m.switchMode(e.Mode)
	}

	m.pos = i
	m.setInput(buffer{text: e.Line, cursor: len(e.Line)})
	m.refresh(false)

	return m
}

// leave ends history navigation with an empty input.
func (m model) leave() model {
	m.pos = m.history.Len()
	m.input.SetValue("")
	m.refresh(false)

	return m
}

// seek returns the index of the nearest entry of mode from the current
// position in direction step, or -1.
func (m model) seek(step int, mode inputMode) int {
	for i := m.pos + step; i >= 0 && i < m.history.Len(); i += step {
		if e, err := m.history.At(i); err == nil && e.Mode == mode {
			return i
		}
	}

	return -1
}

func (m model) older() model {
	if m.pos == 0 {
		return m
	}

	return m.show(m.pos-1, true)
}

func (m model) newer() model {
	if m.pos+1 < m.history.Len() {
		return m.show(m.pos+1, true)
	}

	return m.leave()
}

// stepInMode moves through the entries of the active mode only.
func (m model) stepInMode(step int) model {
	if i := m.seek(step, m.mode); i >= 0 {
		return m.show(i, false)
	}

	if step > 0 && m.pos < m.history.Len() {
		return m.leave()
	}

	return m
}

// recallCtrl moves through command history from either mode. The mode and
// input active before the first step are restored once navigation runs off
// either end of the history.
func (m model) recallCtrl(step int) model {
	if m.recall == nil {
		m.recall = &recall{mode: m.mode, buffer: m.current()}
		m = m.switchMode(modeCtrl)
	}

	if i := m.seek(step, modeCtrl); i >= 0 {
		return m.show(i, false)
	}

	r := m.recall
	m.recall = nil
	m = m.switchMode(r.mode)
	m.setInput(r.buffer)
	m.pos = m.history.Len()
	m.refresh(false)

	return m
}
