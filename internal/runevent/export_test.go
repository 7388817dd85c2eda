package runevent

// ProcessForTest は実行中の子プロセスの pid を返す。実行中でなければ 0。
func (s *State) ProcessForTest() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.proc == nil {
		return 0
	}
	return s.proc.pid
}

// LineBufferForTest は未完の行バッファを返す。
func (s *State) LineBufferForTest() string {
	return string(s.lineBuf)
}

// SetReapingForTest は回収中フラグを直接切り替える。
func (s *State) SetReapingForTest(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reaping = v
}
