package browser

// consentScript clicks the first visible element that looks like a
// cookie/consent accept button. Returns true when something was clicked so
// the caller can stop probing.
const consentScript = `(() => {
	const texts = ['accept all', 'accept', 'agree', 'i agree', 'got it', 'allow all', 'ok', 'alle akzeptieren', 'akzeptieren', 'zustimmen', 'verstanden'];
	const attrSelectors = [
		'#onetrust-accept-btn-handler',
		'[id*="cookie"] button',
		'[class*="cookie"] button',
		'[id*="consent"] button',
		'[class*="consent"] button',
		'[aria-label*="accept" i]',
	];
	const visible = (el) => {
		if (!el) return false;
		const rect = el.getBoundingClientRect();
		const style = window.getComputedStyle(el);
		return rect.width > 0 && rect.height > 0 && style.visibility !== 'hidden' && style.display !== 'none';
	};
	const candidates = Array.from(document.querySelectorAll('button, [role="button"], input[type="button"], input[type="submit"], a'));
	for (const el of candidates) {
		const text = (el.innerText || el.value || '').trim().toLowerCase();
		if (!text || text.length > 40) continue;
		if (texts.some((t) => text === t || text.startsWith(t))) {
			if (visible(el)) { el.click(); return true; }
		}
	}
	for (const sel of attrSelectors) {
		let el;
		try { el = document.querySelector(sel); } catch (e) { continue; }
		if (visible(el)) { el.click(); return true; }
	}
	return false;
})()`

// sameOriginFramesScript snapshots the HTML of every iframe the main
// document can reach. Cross-origin frames throw on contentDocument access
// and are skipped here; those are collected through their own CDP targets.
const sameOriginFramesScript = `(() => {
	const out = [];
	const iframes = Array.from(document.querySelectorAll('iframe'));
	for (let i = 0; i < iframes.length; i++) {
		try {
			const doc = iframes[i].contentDocument;
			if (!doc || !doc.documentElement) continue;
			out.push({ index: i, url: iframes[i].src || '', html: doc.documentElement.outerHTML });
		} catch (e) {
			// cross-origin frame
		}
	}
	return out;
})()`

// fillScriptTemplate applies a JSON fill plan to a document. The plan
// addresses controls by (form index, control index) using the same
// enumeration order as the Go-side form scan: forms in document order,
// fillable controls (input, textarea, select) in document order within
// each form. Returns the number of controls written.
//
// The template's two placeholders are the document expression and the
// JSON-encoded plan.
const fillScriptTemplate = `((doc, plan) => {
	const fire = (el, type) => el.dispatchEvent(new Event(type, { bubbles: true }));
	const forms = Array.from(doc.querySelectorAll('form'));
	let filled = 0;
	for (const step of plan) {
		const form = forms[step.form_index];
		if (!form) continue;
		const controls = Array.from(form.querySelectorAll('input, textarea, select'));
		const el = controls[step.field_index];
		if (!el) continue;
		try {
			if (step.action === 'check') {
				if (!el.checked) { el.click(); }
				filled++;
			} else if (step.action === 'select') {
				el.value = step.value;
				if (el.value !== step.value) {
					// Options without a value attribute answer to their text.
					const opt = Array.from(el.options).find((o) => o.text.trim() === step.value);
					if (opt) { opt.selected = true; }
				}
				fire(el, 'change');
				filled++;
			} else {
				el.focus();
				el.value = step.value;
				fire(el, 'input');
				fire(el, 'change');
				filled++;
			}
		} catch (e) {
			// leave the control untouched on any per-field fault
		}
	}
	return filled;
})(%s, %s)`
