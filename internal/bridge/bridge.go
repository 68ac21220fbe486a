package bridge

import (
	"fmt"
	"strconv"

	"siteshell/pkg/domain"

	"github.com/tidwall/gjson"
)

// Command 页面脚本可发送的命令
type Command string

const (
	CommandPrint   Command = "print"
	CommandLogout  Command = "logout"
	CommandRefresh Command = "refresh"
	CommandBack    Command = "back"
)

// BindingName 页面中注册的绑定函数名
const BindingName = "__siteshellBridge"

var known = map[Command]struct{}{
	CommandPrint:   {},
	CommandLogout:  {},
	CommandRefresh: {},
	CommandBack:    {},
}

// Decode 解析绑定调用的负载，格式为 {"command":"print"}
func Decode(payload string) (Command, error) {
	if !gjson.Valid(payload) {
		return "", fmt.Errorf("%w: %q", domain.ErrBadPayload, payload)
	}
	res := gjson.Get(payload, "command")
	if res.Type != gjson.String {
		return "", fmt.Errorf("%w: missing command", domain.ErrBadPayload)
	}
	cmd := Command(res.String())
	if _, ok := known[cmd]; !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrUnknownCommand, cmd)
	}
	return cmd, nil
}

// PageScript 生成注入到每个新文档的脚本：
// 暴露 window.<namespace>.print()/logout()，并把下拉刷新和返回手势转为命令。
func PageScript(namespace, binding string) string {
	ns := strconv.Quote(namespace)
	b := strconv.Quote(binding)
	return `(function() {
  var send = function(cmd) {
    var fn = window[` + b + `];
    if (typeof fn === 'function') { fn(JSON.stringify({command: cmd})); }
  };
  window[` + ns + `] = {
    print: function() { send('print'); },
    logout: function() { send('logout'); }
  };
  var pullStart = null;
  window.addEventListener('touchstart', function(e) {
    pullStart = (window.scrollY <= 0 && e.touches.length === 1) ? e.touches[0].clientY : null;
  }, {passive: true});
  window.addEventListener('touchend', function(e) {
    if (pullStart !== null && e.changedTouches.length && e.changedTouches[0].clientY - pullStart > 80) { send('refresh'); }
    pullStart = null;
  }, {passive: true});
  window.addEventListener('wheel', function(e) {
    if (window.scrollY <= 0 && e.deltaY < -40) { send('refresh'); }
  }, {passive: true});
  window.addEventListener('keydown', function(e) {
    if (e.key === 'F5' || ((e.ctrlKey || e.metaKey) && (e.key === 'r' || e.key === 'R'))) {
      e.preventDefault(); send('refresh');
    } else if ((e.altKey && e.key === 'ArrowLeft') || e.key === 'BrowserBack') {
      e.preventDefault(); send('back');
    }
  }, true);
})();`
}

// RefreshIndicatorScript 显示或隐藏刷新指示条
func RefreshIndicatorScript(active bool) string {
	if !active {
		return `(function() { var el = document.getElementById('__siteshell_refresh'); if (el) { el.remove(); } })();`
	}
	return `(function() {
  if (document.getElementById('__siteshell_refresh')) { return; }
  var el = document.createElement('div');
  el.id = '__siteshell_refresh';
  el.style.cssText = 'position:fixed;top:0;left:0;right:0;height:3px;z-index:2147483647;background:linear-gradient(90deg,#3b82f6,#93c5fd,#3b82f6);background-size:200% 100%;animation:__siteshell_bar 1s linear infinite;';
  var st = document.createElement('style');
  st.textContent = '@keyframes __siteshell_bar{from{background-position:200% 0}to{background-position:0 0}}';
  el.appendChild(st);
  (document.body || document.documentElement).appendChild(el);
})();`
}
