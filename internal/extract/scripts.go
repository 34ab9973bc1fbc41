package extract

// scrollScript scrolls the window and the largest internally scrollable
// element to their bottoms.
const scrollScript = `(() => {
  window.scrollTo(0, document.body.scrollHeight);
  let best = null, bestHeight = 0;
  for (const el of document.querySelectorAll('div, main, section, ul')) {
    const style = getComputedStyle(el);
    const scrollable = /(auto|scroll)/.test(style.overflowY) && el.scrollHeight > el.clientHeight;
    if (scrollable && el.scrollHeight > bestHeight) {
      best = el;
      bestHeight = el.scrollHeight;
    }
  }
  if (best) best.scrollTop = best.scrollHeight;
  return true;
})()`

// measureScript reports total scroll height (window plus largest scrollable
// container) and the number of distinct song links.
const measureScript = `(() => {
  let height = document.body.scrollHeight;
  for (const el of document.querySelectorAll('div, main, section, ul')) {
    if (el.scrollHeight > el.clientHeight && el.scrollHeight > height) height = el.scrollHeight;
  }
  const links = new Set();
  for (const a of document.querySelectorAll('a[href*="/song/"]')) links.add(a.getAttribute('href').split('?')[0]);
  return {height: height, links: links.size};
})()`

// pageMetrics is the decoded result of measureScript.
type pageMetrics struct {
	Height int `json:"height"`
	Links  int `json:"links"`
}
