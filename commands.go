// commands.go: user-defined named operations
//
// Invoke dispatches to a Command registered at construction time, routing
// write commands through the transaction queue (locking the command's key)
// when the cache has one, and letting read commands bypass it entirely.
package warden

// Invoke runs the named custom command against key with the given
// positional args, through the standard pre/post hook pipeline.
func (c *Cache) Invoke(name, key string, args ...interface{}) (interface{}, error) {
	cmd, ok := c.commands[name]
	if !ok {
		return nil, NewErrInvalidCommand(name)
	}

	notifyArgs := append([]interface{}{key}, args...)
	result := c.do("invoke:"+name, notifyArgs, true, func() ActionResult {
		var (
			v   interface{}
			err error
		)
		run := func() (interface{}, error) { return cmd.Execute(c, key, args...) }
		if cmd.Type == CommandWrite && c.txq != nil {
			v, err = c.txq.Transaction([]string{key}, run)
		} else {
			v, err = run()
		}
		if err != nil {
			return actionErr(err)
		}
		return ok(v)
	})

	if result.Tag == TagError {
		return nil, result.Err
	}
	return result.Value, nil
}
